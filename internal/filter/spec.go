// Package filter parses dashboard query parameters into a Spec and applies
// it to campaign records.
package filter

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"campaign-dashboard/internal/models"
)

// Subscription parameter names, highest priority first.
var subscriptionParams = []string{"subscribed", "subscription", "y"}

// SubscriptionFilter is derived from the accepted target values.
type SubscriptionFilter int

const (
	SubscriptionNone SubscriptionFilter = iota
	SubscriptionOnlyYes
	SubscriptionOnlyNo
)

func (s SubscriptionFilter) String() string {
	switch s {
	case SubscriptionOnlyYes:
		return "only-yes"
	case SubscriptionOnlyNo:
		return "only-no"
	}
	return "none"
}

// Range is an inclusive numeric bound. A bound only applies when its Has flag is set.
type Range struct {
	Min    float64
	Max    float64
	HasMin bool
	HasMax bool
}

func (r Range) active() bool { return r.HasMin || r.HasMax }

func (r Range) contains(v float64) bool {
	if r.HasMin && v < r.Min {
		return false
	}
	if r.HasMax && v > r.Max {
		return false
	}
	return true
}

// Spec is the filter of a single request. Value sets are normalized, sorted
// and free of duplicates. A field with no accepted values does not constrain.
type Spec struct {
	Categorical map[CategoricalField][]string
	Subscribed  []string
	Ranges      map[NumericField]Range
}

// Options tune parsing.
type Options struct {
	// StrictZeroMin honors a minimum of exactly zero. By default a zero
	// minimum is treated as absent.
	StrictZeroMin bool
}

// Parse builds a Spec from query parameters. It never fails: blank values,
// unknown target values and malformed numbers are dropped.
func Parse(values url.Values) Spec {
	return ParseWith(values, Options{})
}

func ParseWith(values url.Values, opts Options) Spec {
	spec := Spec{
		Categorical: make(map[CategoricalField][]string),
		Ranges:      make(map[NumericField]Range),
	}

	for _, field := range CategoricalFields {
		raw := values[string(field)]
		for _, alias := range field.aliases() {
			raw = append(raw, values[alias]...)
		}
		if set := normalizeSet(raw); len(set) > 0 {
			spec.Categorical[field] = set
		}
	}

	for _, name := range subscriptionParams {
		set := normalizeSet(values[name])
		if len(set) == 0 {
			continue
		}
		set = slices.DeleteFunc(set, func(v string) bool { return v != "yes" && v != "no" })
		if len(set) > 0 {
			spec.Subscribed = set
		}
		break
	}

	for _, field := range NumericFields {
		var r Range
		if v, ok := parseNumber(field, values[string(field)+"_min"]); ok && (v != 0 || opts.StrictZeroMin) {
			r.Min, r.HasMin = v, true
		}
		if v, ok := parseNumber(field, values[string(field)+"_max"]); ok {
			r.Max, r.HasMax = v, true
		}
		if r.active() {
			spec.Ranges[field] = r
		}
	}

	return spec
}

func normalizeSet(raw []string) []string {
	var out []string
	for _, v := range raw {
		v = models.Normalize(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// parseNumber reads the first non-blank value. Integer fields only accept
// whole numbers; float fields reject NaN and infinities.
func parseNumber(field NumericField, raw []string) (float64, bool) {
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if field.Integer() {
			// Integer columns are 32-bit in the Postgres schema.
			n, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Subscription reports whether the target filter narrows to one outcome.
func (s Spec) Subscription() SubscriptionFilter {
	if len(s.Subscribed) != 1 {
		return SubscriptionNone
	}
	if s.Subscribed[0] == "yes" {
		return SubscriptionOnlyYes
	}
	return SubscriptionOnlyNo
}

// Converted narrows s to subscribed records. ok is false when s already
// excludes them, in which case no record can match.
func (s Spec) Converted() (spec Spec, ok bool) {
	if len(s.Subscribed) > 0 && !slices.Contains(s.Subscribed, "yes") {
		return s, false
	}
	s.Subscribed = []string{"yes"}
	return s, true
}

// IsEmpty reports whether the spec accepts every record.
func (s Spec) IsEmpty() bool {
	return len(s.Categorical) == 0 && len(s.Subscribed) == 0 && len(s.Ranges) == 0
}

// Accepted returns the accepted values of a field, nil when unconstrained.
func (s Spec) Accepted(field CategoricalField) []string {
	return s.Categorical[field]
}

// Range returns the bound on a field.
func (s Spec) Range(field NumericField) (Range, bool) {
	r, ok := s.Ranges[field]
	return r, ok && r.active()
}

// Query encodes the spec back into query parameters.
func (s Spec) Query() url.Values {
	q := url.Values{}
	for _, field := range CategoricalFields {
		for _, v := range s.Categorical[field] {
			q.Add(string(field), v)
		}
	}
	for _, v := range s.Subscribed {
		q.Add("subscribed", v)
	}
	for _, field := range NumericFields {
		r, ok := s.Range(field)
		if !ok {
			continue
		}
		if r.HasMin {
			q.Set(string(field)+"_min", formatNumber(r.Min))
		}
		if r.HasMax {
			q.Set(string(field)+"_max", formatNumber(r.Max))
		}
	}
	return q
}

// CacheKey is a canonical string that is equal for equivalent specs.
func (s Spec) CacheKey() string {
	// url.Values.Encode sorts by key and the value sets are already sorted.
	return s.Query().Encode()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
