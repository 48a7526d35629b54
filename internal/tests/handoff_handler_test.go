package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"driveshare/internal/handler"
)

func newVerifyRouter(f *handoffFixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewHandoffHandler(f.svc)
	r := gin.New()
	r.POST("/v1/handoff/:bookingId/verify", h.Verify)
	return r
}

func postVerify(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/handoff/booking-1/verify", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVerifyEndpoint_ZeroCoordinatesBind(t *testing.T) {
	t.Parallel()

	f := newHandoffFixture(defaultHandoffConfig())
	f.bookings.AddBooking(testBooking("booking-1", false))
	r := newVerifyRouter(f)

	// A fix on the equator and prime meridian is a legal coordinate pair and
	// must reach the proximity check instead of failing request binding.
	w := postVerify(t, r, `{"lat": 0, "lng": 0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for zero coordinates, got %d: %s", w.Code, w.Body.String())
	}

	var resp handler.VerifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Verified {
		t.Error("a guest at 0,0 cannot be within the handoff radius")
	}
}

func TestVerifyEndpoint_MissingCoordinateRejected(t *testing.T) {
	t.Parallel()

	f := newHandoffFixture(defaultHandoffConfig())
	f.bookings.AddBooking(testBooking("booking-1", false))
	r := newVerifyRouter(f)

	w := postVerify(t, r, `{"lat": 33.4484}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing lng, got %d", w.Code)
	}
}
