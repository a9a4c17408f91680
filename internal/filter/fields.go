package filter

import "campaign-dashboard/internal/models"

// CategoricalField names a multi-select filter. The value is the query
// parameter used for it.
type CategoricalField string

const (
	Marital   CategoricalField = "marital"
	Job       CategoricalField = "job"
	Education CategoricalField = "education"
	Default   CategoricalField = "default"
	Housing   CategoricalField = "housing"
	Loan      CategoricalField = "loan"
	Contact   CategoricalField = "contact"
	Month     CategoricalField = "month"
	Day       CategoricalField = "day"
	Poutcome  CategoricalField = "poutcome"
)

// CategoricalFields lists every categorical field in dashboard order.
var CategoricalFields = []CategoricalField{
	Marital, Job, Education, Default, Housing, Loan, Contact, Month, Day, Poutcome,
}

// ParseCategorical resolves a field name, accepting the day aliases.
func ParseCategorical(name string) (CategoricalField, bool) {
	name = models.Normalize(name)
	for _, f := range CategoricalFields {
		if string(f) == name {
			return f, true
		}
	}
	switch name {
	case "day_of_week", "dayofweek":
		return Day, true
	}
	return "", false
}

// Value returns the raw record value for the field.
func (f CategoricalField) Value(r models.CampaignRecord) string {
	switch f {
	case Marital:
		return r.Marital
	case Job:
		return r.Job
	case Education:
		return r.Education
	case Default:
		return r.Default
	case Housing:
		return r.Housing
	case Loan:
		return r.Loan
	case Contact:
		return r.Contact
	case Month:
		return r.Month
	case Day:
		return r.DayOfWeek
	case Poutcome:
		return r.Poutcome
	}
	return ""
}

// Column is the campaign_data column backing the field.
func (f CategoricalField) Column() string {
	if f == Day {
		return "day_of_week"
	}
	return string(f)
}

// aliases are additional query parameter names for a field.
func (f CategoricalField) aliases() []string {
	if f == Day {
		return []string{"day_of_week", "dayOfWeek"}
	}
	return nil
}

// NumericField names a range filter. Query parameters are <name>_min and <name>_max.
type NumericField string

const (
	Age          NumericField = "age"
	Duration     NumericField = "duration"
	Campaign     NumericField = "campaign"
	Pdays        NumericField = "pdays"
	Previous     NumericField = "previous"
	EmpVarRate   NumericField = "empvarrate"
	ConsPriceIdx NumericField = "conspriceidx"
	ConsConfIdx  NumericField = "consconfidx"
	Euribor3m    NumericField = "euribor3m"
	NrEmployed   NumericField = "nremployed"
)

var NumericFields = []NumericField{
	Age, Duration, Campaign, Pdays, Previous,
	EmpVarRate, ConsPriceIdx, ConsConfIdx, Euribor3m, NrEmployed,
}

// EconomicIndicators are the float fields plotted as scatter series.
var EconomicIndicators = []NumericField{
	EmpVarRate, ConsPriceIdx, ConsConfIdx, Euribor3m, NrEmployed,
}

// Integer reports whether the field holds whole numbers.
func (f NumericField) Integer() bool {
	switch f {
	case Age, Duration, Campaign, Pdays, Previous:
		return true
	}
	return false
}

func (f NumericField) Value(r models.CampaignRecord) float64 {
	switch f {
	case Age:
		return float64(r.Age)
	case Duration:
		return float64(r.Duration)
	case Campaign:
		return float64(r.Campaign)
	case Pdays:
		return float64(r.Pdays)
	case Previous:
		return float64(r.Previous)
	case EmpVarRate:
		return r.EmpVarRate
	case ConsPriceIdx:
		return r.ConsPriceIdx
	case ConsConfIdx:
		return r.ConsConfIdx
	case Euribor3m:
		return r.Euribor3m
	case NrEmployed:
		return r.NrEmployed
	}
	return 0
}

// Column is the campaign_data column backing the field.
func (f NumericField) Column() string {
	switch f {
	case EmpVarRate:
		return "emp_var_rate"
	case ConsPriceIdx:
		return "cons_price_idx"
	case ConsConfIdx:
		return "cons_conf_idx"
	case NrEmployed:
		return "nr_employed"
	}
	return string(f)
}
