package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campaign-dashboard/internal/config"
	"campaign-dashboard/internal/filter"
	"campaign-dashboard/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	table = "campaign_data"

	// whitespace is the ASCII set strings.TrimSpace strips, as a Postgres
	// escape string. Plain TRIM only strips spaces.
	whitespace = `E' \t\n\x0b\f\r'`

	// pdaysExpr folds the legacy 999 marker into PdaysNever.
	pdaysExpr = "CASE WHEN pdays = 999 THEN -1 ELSE pdays END"

	selectColumns = `age, COALESCE(job, '') AS job, COALESCE(marital, '') AS marital,
		COALESCE(education, '') AS education, COALESCE("default", '') AS "default",
		COALESCE(housing, '') AS housing, COALESCE(loan, '') AS loan,
		COALESCE(contact, '') AS contact, COALESCE(month, '') AS month,
		COALESCE(day_of_week, '') AS day_of_week, duration, campaign,
		` + pdaysExpr + ` AS pdays, previous, COALESCE(poutcome, '') AS poutcome,
		emp_var_rate, cons_price_idx, cons_conf_idx, euribor3m, nr_employed,
		COALESCE(y, '') AS y`

	// columnsPerRow is the number of columns inserted per record.
	columnsPerRow = 21

	// insertBatchSize keeps each INSERT below the 65535 parameter limit.
	insertBatchSize = 1000
)

// Postgres pushes filters down to the campaign_data table.
type Postgres struct {
	db       *sqlx.DB
	openedAt time.Time
	logger   *slog.Logger
}

func NewPostgres(db *sqlx.DB, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{
		db:       db,
		openedAt: time.Now(),
		logger:   logger.With("component", "postgres_source"),
	}
}

// OpenPostgres connects and pings with exponential backoff until
// cfg.ConnectTimeout elapses.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*Postgres, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, unavailable("open postgres", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	p := NewPostgres(db, logger)

	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime = cfg.ConnectTimeout
	if expo.MaxElapsedTime <= 0 {
		expo.MaxElapsedTime = 30 * time.Second
	}
	ping := func() error { return db.PingContext(ctx) }
	notify := func(err error, wait time.Duration) {
		p.logger.Warn("postgres not ready, retrying", "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(expo, ctx), notify); err != nil {
		db.Close()
		return nil, unavailable("ping postgres", err)
	}
	return p, nil
}

// DB exposes the pool for migrations.
func (p *Postgres) DB() *sqlx.DB { return p.db }

// trimmed is col with NULL as empty and surrounding whitespace stripped.
func trimmed(col string) string {
	return "BTRIM(COALESCE(" + col + ", ''), " + whitespace + ")"
}

// where renders spec as a WHERE clause with $n placeholders starting at 1.
func where(spec filter.Spec) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, field := range filter.CategoricalFields {
		values := spec.Accepted(field)
		if len(values) == 0 {
			continue
		}
		col := field.Column()
		if field == filter.Default {
			col = `"default"`
		}
		conds = append(conds, fmt.Sprintf("LOWER(%s) = ANY(%s)", trimmed(col), arg(pq.Array(values))))
	}
	if len(spec.Subscribed) > 0 {
		conds = append(conds, fmt.Sprintf("LOWER(%s) = ANY(%s)", trimmed("y"), arg(pq.Array(spec.Subscribed))))
	}
	for _, field := range filter.NumericFields {
		rng, ok := spec.Range(field)
		if !ok {
			continue
		}
		col := field.Column()
		if field == filter.Pdays {
			col = "(" + pdaysExpr + ")"
		}
		if rng.HasMin {
			conds = append(conds, fmt.Sprintf("%s >= %s", col, arg(rng.Min)))
		}
		if rng.HasMax {
			conds = append(conds, fmt.Sprintf("%s <= %s", col, arg(rng.Max)))
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (p *Postgres) Filter(ctx context.Context, spec filter.Spec) ([]models.CampaignRecord, error) {
	clause, args := where(spec)
	query := "SELECT " + selectColumns + " FROM " + table + clause + " ORDER BY id"

	var records []models.CampaignRecord
	if err := p.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, unavailable("filter records", err)
	}
	return records, nil
}

func (p *Postgres) Count(ctx context.Context, spec filter.Spec) (int, error) {
	clause, args := where(spec)
	var n int
	if err := p.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table+clause, args...); err != nil {
		return 0, unavailable("count records", err)
	}
	return n, nil
}

func (p *Postgres) Average(ctx context.Context, spec filter.Spec, field filter.NumericField) (float64, error) {
	clause, args := where(spec)
	col := field.Column()
	if field == filter.Pdays {
		col = pdaysExpr
	}
	query := fmt.Sprintf("SELECT COALESCE(AVG(%s), 0) FROM %s%s", col, table, clause)

	var avg float64
	if err := p.db.GetContext(ctx, &avg, query, args...); err != nil {
		return 0, unavailable("average "+string(field), err)
	}
	return avg, nil
}

func (p *Postgres) CountBy(ctx context.Context, spec filter.Spec, field filter.CategoricalField) (models.CountSeries, error) {
	clause, args := where(spec)
	col := field.Column()
	if field == filter.Default {
		col = `"default"`
	}
	query := fmt.Sprintf(
		"SELECT CASE WHEN %[4]s = '' THEN 'Unknown' ELSE %[1]s END AS label, COUNT(*) AS count"+
			" FROM %[2]s%[3]s GROUP BY 1 ORDER BY MIN(id)", col, table, clause, trimmed(col))

	groups := models.CountSeries{}
	if err := p.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, unavailable("group by "+string(field), err)
	}
	return groups, nil
}

func (p *Postgres) Page(ctx context.Context, spec filter.Spec, page, size int) ([]models.CampaignRecord, int, error) {
	total, err := p.Count(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	_, offset := Offset(page, size)
	if offset >= total {
		return []models.CampaignRecord{}, total, nil
	}

	clause, args := where(spec)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY age, id LIMIT $%d OFFSET $%d",
		selectColumns, table, clause, len(args)+1, len(args)+2)
	args = append(args, size, offset)

	records := []models.CampaignRecord{}
	if err := p.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, unavailable("page records", err)
	}
	return records, total, nil
}

func (p *Postgres) Len(ctx context.Context) (int, error) {
	return p.Count(ctx, filter.Spec{})
}

func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (p *Postgres) Info() Info {
	return Info{Driver: "postgres", Location: table, LoadedAt: p.openedAt}
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// Insert writes records in multi-row INSERT statements inside one transaction.
func (p *Postgres) Insert(ctx context.Context, records []models.CampaignRecord) (int, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin import", err)
	}
	defer tx.Rollback()

	inserted := 0
	for start := 0; start < len(records); start += insertBatchSize {
		end := min(start+insertBatchSize, len(records))
		if err := batchInsert(ctx, tx, records[start:end]); err != nil {
			return inserted, unavailable("import records", err)
		}
		inserted += end - start
		p.logger.Debug("inserted batch", "rows", end-start, "total", inserted)
	}

	if err := tx.Commit(); err != nil {
		return 0, unavailable("commit import", err)
	}
	return inserted, nil
}

func batchInsert(ctx context.Context, tx *sqlx.Tx, records []models.CampaignRecord) error {
	if len(records) == 0 {
		return nil
	}

	args := make([]any, 0, len(records)*columnsPerRow)
	var sb strings.Builder
	sb.WriteString(`INSERT INTO campaign_data (age, job, marital, education, "default", housing, loan, ` +
		`contact, month, day_of_week, duration, campaign, pdays, previous, poutcome, ` +
		`emp_var_rate, cons_price_idx, cons_conf_idx, euribor3m, nr_employed, y) VALUES `)

	for i, r := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeValueTuple(&sb, i)
		args = append(args,
			r.Age, r.Job, r.Marital, r.Education, r.Default, r.Housing, r.Loan,
			r.Contact, r.Month, r.DayOfWeek, r.Duration, r.Campaign, r.Pdays, r.Previous, r.Poutcome,
			r.EmpVarRate, r.ConsPriceIdx, r.ConsConfIdx, r.Euribor3m, r.NrEmployed, r.Y,
		)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("exec batch insert: %w", err)
	}
	return nil
}

// writeValueTuple writes one ($1, ..., $21) tuple offset by the row index.
func writeValueTuple(sb *strings.Builder, rowIndex int) {
	base := rowIndex * columnsPerRow
	sb.WriteByte('(')
	for c := 1; c <= columnsPerRow; c++ {
		if c > 1 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "$%d", base+c)
	}
	sb.WriteByte(')')
}
