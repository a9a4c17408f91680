// Package source provides the campaign record stores the dashboard reads from.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campaign-dashboard/internal/filter"
	"campaign-dashboard/internal/models"
)

// ErrUnavailable wraps every failure to query a record source.
var ErrUnavailable = errors.New("record source unavailable")

// RecordSource answers filtered reads over the campaign dataset. Every
// implementation must return the same records for the same Spec.
type RecordSource interface {
	Filter(ctx context.Context, spec filter.Spec) ([]models.CampaignRecord, error)
	Count(ctx context.Context, spec filter.Spec) (int, error)
	// Average is the unrounded mean of field over matching records, 0 when none match.
	Average(ctx context.Context, spec filter.Spec, field filter.NumericField) (float64, error)
	// CountBy groups matching records by the raw field value in first-seen
	// order, reporting blank values as "Unknown".
	CountBy(ctx context.Context, spec filter.Spec, field filter.CategoricalField) (models.CountSeries, error)
	// Page returns one page ordered by ascending age and the total number of matches.
	Page(ctx context.Context, spec filter.Spec, page, size int) ([]models.CampaignRecord, int, error)
	Len(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Info() Info
	Close() error
}

// Info describes a loaded source for the admin endpoint.
type Info struct {
	Driver   string    `json:"driver"`
	Location string    `json:"location"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Offset clamps page to at least 1 and returns the zero-based row offset.
func Offset(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * size
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
