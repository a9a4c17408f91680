package filter

import (
	"context"

	"campaign-dashboard/internal/models"
)

// Predicate reports whether a record passes a filter.
type Predicate func(models.CampaignRecord) bool

// All is the conjunction of preds. With no preds it accepts everything.
func All(preds ...Predicate) Predicate {
	return func(r models.CampaignRecord) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// In accepts a record whose normalized field value is one of values.
func In(field CategoricalField, values []string) Predicate {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(r models.CampaignRecord) bool {
		_, ok := set[models.Normalize(field.Value(r))]
		return ok
	}
}

// Between accepts a record whose field value lies inside rng.
func Between(field NumericField, rng Range) Predicate {
	return func(r models.CampaignRecord) bool {
		return rng.contains(field.Value(r))
	}
}

func subscribedIn(values []string) Predicate {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(r models.CampaignRecord) bool {
		_, ok := set[models.Normalize(r.Y)]
		return ok
	}
}

// Predicate compiles the spec: AND across active fields, OR within one field.
func (s Spec) Predicate() Predicate {
	var preds []Predicate
	for _, field := range CategoricalFields {
		if values := s.Categorical[field]; len(values) > 0 {
			preds = append(preds, In(field, values))
		}
	}
	if len(s.Subscribed) > 0 {
		preds = append(preds, subscribedIn(s.Subscribed))
	}
	for _, field := range NumericFields {
		if rng, ok := s.Range(field); ok {
			preds = append(preds, Between(field, rng))
		}
	}
	return All(preds...)
}

// Matches reports whether r satisfies every active constraint of s.
func (s Spec) Matches(r models.CampaignRecord) bool {
	return s.Predicate()(r)
}

// checkEvery is how many records Apply scans between context checks.
const checkEvery = 4096

// Apply returns the records accepted by pred, preserving input order. The
// input slice is never modified.
func Apply(ctx context.Context, records []models.CampaignRecord, pred Predicate) ([]models.CampaignRecord, error) {
	out := make([]models.CampaignRecord, 0, len(records)/4)
	for i, r := range records {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if pred(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
