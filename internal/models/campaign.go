package models

import "strings"

// PdaysNever marks a client that was never contacted in a previous campaign.
// Source files that use the legacy 999 marker are normalized to this value on load.
const PdaysNever = -1

// PdaysLegacyNever is the marker used by the published bank-marketing CSV files.
const PdaysLegacyNever = 999

// CampaignRecord is one contact event of the marketing campaign. Records are
// immutable once loaded.
type CampaignRecord struct {
	Age          int     `json:"age" db:"age"`
	Job          string  `json:"job" db:"job"`
	Marital      string  `json:"marital" db:"marital"`
	Education    string  `json:"education" db:"education"`
	Default      string  `json:"default" db:"default"`
	Housing      string  `json:"housing" db:"housing"`
	Loan         string  `json:"loan" db:"loan"`
	Contact      string  `json:"contact" db:"contact"`
	Month        string  `json:"month" db:"month"`
	DayOfWeek    string  `json:"day_of_week" db:"day_of_week"`
	Duration     int     `json:"duration" db:"duration"`
	Campaign     int     `json:"campaign" db:"campaign"`
	Pdays        int     `json:"pdays" db:"pdays"`
	Previous     int     `json:"previous" db:"previous"`
	Poutcome     string  `json:"poutcome" db:"poutcome"`
	EmpVarRate   float64 `json:"emp_var_rate" db:"emp_var_rate"`
	ConsPriceIdx float64 `json:"cons_price_idx" db:"cons_price_idx"`
	ConsConfIdx  float64 `json:"cons_conf_idx" db:"cons_conf_idx"`
	Euribor3m    float64 `json:"euribor3m" db:"euribor3m"`
	NrEmployed   float64 `json:"nr_employed" db:"nr_employed"`
	Y            string  `json:"y" db:"y"`
}

// Subscribed reports whether the contact converted. Anything other than
// "yes" (case-insensitive, trimmed) counts as not subscribed.
func (r CampaignRecord) Subscribed() bool {
	return Normalize(r.Y) == "yes"
}

// NeverContacted reports whether pdays carries the never-contacted marker.
func (r CampaignRecord) NeverContacted() bool {
	return r.Pdays == PdaysNever
}

// Normalize trims and lower-cases a categorical value.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePdays maps the legacy 999 marker onto PdaysNever.
func NormalizePdays(pdays int) int {
	if pdays == PdaysLegacyNever {
		return PdaysNever
	}
	return pdays
}
