package service

import "strings"

// TaxEntry is one jurisdiction's combined rental tax rate.
type TaxEntry struct {
	Rate    float64
	Display string
}

// TaxTable is a static jurisdiction lookup keyed by city. Rates apply to the
// booking subtotal only, never to post-trip charges. Lookups never fail:
// unknown cities resolve to the state default.
type TaxTable struct {
	entries      map[string]TaxEntry
	defaultEntry TaxEntry
}

// NewTaxTable builds the Arizona jurisdiction table.
func NewTaxTable() *TaxTable {
	return &TaxTable{
		entries: map[string]TaxEntry{
			"phoenix":    {Rate: 0.086, Display: "Phoenix, AZ (8.6%)"},
			"scottsdale": {Rate: 0.0805, Display: "Scottsdale, AZ (8.05%)"},
			"tempe":      {Rate: 0.081, Display: "Tempe, AZ (8.1%)"},
			"mesa":       {Rate: 0.083, Display: "Mesa, AZ (8.3%)"},
			"chandler":   {Rate: 0.078, Display: "Chandler, AZ (7.8%)"},
			"glendale":   {Rate: 0.092, Display: "Glendale, AZ (9.2%)"},
			"gilbert":    {Rate: 0.078, Display: "Gilbert, AZ (7.8%)"},
			"tucson":     {Rate: 0.087, Display: "Tucson, AZ (8.7%)"},
			"flagstaff":  {Rate: 0.0918, Display: "Flagstaff, AZ (9.18%)"},
		},
		defaultEntry: TaxEntry{Rate: 0.056, Display: "Arizona (5.6%)"},
	}
}

// RateFor resolves the tax entry for a city or free-text address.
func (t *TaxTable) RateFor(city string) TaxEntry {
	normalized := t.NormalizeCity(city)
	if entry, ok := t.entries[normalized]; ok {
		return entry
	}
	return t.defaultEntry
}

// NormalizeCity extracts a known city name from free-text input such as
// "123 Main St, Phoenix, AZ 85004". It first takes the comma-separated token
// preceding the state abbreviation, then falls back to scanning for any known
// city name. Returns the lowercased city, or "" when nothing matches.
func (t *TaxTable) NormalizeCity(input string) string {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return ""
	}

	// Direct city name, e.g. "Phoenix".
	if _, ok := t.entries[trimmed]; ok {
		return trimmed
	}

	// Token preceding the state abbreviation.
	parts := strings.Split(trimmed, ",")
	for i, part := range parts {
		token := strings.TrimSpace(part)
		// "az" or "az 85004"
		if token == "az" || strings.HasPrefix(token, "az ") {
			if i > 0 {
				candidate := strings.TrimSpace(parts[i-1])
				if _, ok := t.entries[candidate]; ok {
					return candidate
				}
			}
		}
	}

	// Last resort: any known city mentioned anywhere in the input.
	for city := range t.entries {
		if strings.Contains(trimmed, city) {
			return city
		}
	}

	return ""
}
