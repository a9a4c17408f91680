package source

import (
	"context"
	"encoding/csv"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"campaign-dashboard/internal/aggregate"
	"campaign-dashboard/internal/filter"
	"campaign-dashboard/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize    = 10000
	maxWorkers   = 10
	cacheVersion = "v1"
)

type snapshot struct {
	Records      []models.CampaignRecord
	LastModified time.Time
	Location     string
}

// Memory serves an immutable record set held in process, typically loaded
// from a CSV export of the campaign table.
type Memory struct {
	mu       sync.RWMutex
	records  []models.CampaignRecord
	byAge    []int
	info     Info
	cacheDir string
	logger   *slog.Logger
}

// NewMemory returns an empty source. cacheDir holds parsed snapshots; an
// empty cacheDir disables them.
func NewMemory(cacheDir string, logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		cacheDir: cacheDir,
		info:     Info{Driver: "csv"},
		logger:   logger.With("component", "memory_source"),
	}
}

// SetData replaces the record set.
func (m *Memory) SetData(records []models.CampaignRecord) {
	m.store(&snapshot{Records: records, LastModified: time.Now(), Location: "memory"})
}

func (m *Memory) store(s *snapshot) {
	byAge := make([]int, len(s.Records))
	for i := range byAge {
		byAge[i] = i
	}
	slices.SortStableFunc(byAge, func(a, b int) int {
		return s.Records[a].Age - s.Records[b].Age
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = s.Records
	m.byAge = byAge
	m.info = Info{Driver: "csv", Location: s.Location, LoadedAt: s.LastModified}
}

func (m *Memory) view() ([]models.CampaignRecord, []int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records, m.byAge
}

// LoadFromCSV parses filename, reusing a cached snapshot while it is newer
// than the file.
func (m *Memory) LoadFromCSV(ctx context.Context, filename string) error {
	if cached, err := m.loadFromCache(filename); err == nil {
		fileInfo, err := os.Stat(filename)
		if err == nil && fileInfo.ModTime().Before(cached.LastModified) {
			m.store(cached)
			m.logger.Info("loaded from cache", "records", len(cached.Records))
			return nil
		}
	}

	start := time.Now()
	m.logger.Info("processing CSV file", "filename", filename)

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	records, err := ParseCSV(ctx, file)
	if err != nil {
		return fmt.Errorf("process csv: %w", err)
	}

	snap := &snapshot{Records: records, LastModified: time.Now(), Location: filename}
	m.store(snap)

	if err := m.saveToCache(filename, snap); err != nil {
		m.logger.Warn("failed to save cache", "error", err)
	}

	duration := time.Since(start)
	m.logger.Info("csv processing complete",
		"records", len(records),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(records))/duration.Seconds()))

	return nil
}

// ParseCSV reads a campaign CSV with either ';' or ',' delimiters. Rows
// that cannot be parsed are skipped. Record order follows the file.
func ParseCSV(ctx context.Context, r io.Reader) ([]models.CampaignRecord, error) {
	reader := NewCSVReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := newColumns(header)
	if err != nil {
		return nil, err
	}

	var records []models.CampaignRecord
	batch := make([][]string, 0, batchSize)
	skipped := 0

	flush := func() error {
		parsed, bad, err := processBatch(ctx, batch, cols)
		if err != nil {
			return err
		}
		records = append(records, parsed...)
		skipped += bad
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed line is skipped like an unparsable row.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}

		batch = append(batch, row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid records found (%d skipped)", skipped)
	}
	return records, nil
}

// processBatch parses rows in parallel chunks and keeps their order.
func processBatch(ctx context.Context, batch [][]string, cols columns) ([]models.CampaignRecord, int, error) {
	if len(batch) == 0 {
		return nil, 0, nil
	}
	parsed := make([]models.CampaignRecord, len(batch))
	valid := make([]bool, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(batch) + maxWorkers - 1) / maxWorkers
	for start := 0; start < len(batch); start += chunk {
		end := min(start+chunk, len(batch))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				rec, err := parseRecord(batch[i], cols)
				if err != nil {
					continue
				}
				parsed[i], valid[i] = rec, true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	out := make([]models.CampaignRecord, 0, len(batch))
	for i, ok := range valid {
		if ok {
			out = append(out, parsed[i])
		}
	}
	return out, len(batch) - len(out), nil
}

func (m *Memory) cacheFilename(csvPath string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(csvPath)
	return filepath.Join(m.cacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (m *Memory) saveToCache(csvPath string, snap *snapshot) error {
	if m.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(m.cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(m.cacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(snap)
}

func (m *Memory) loadFromCache(csvPath string) (*snapshot, error) {
	if m.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	file, err := os.Open(m.cacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (m *Memory) Filter(ctx context.Context, spec filter.Spec) ([]models.CampaignRecord, error) {
	records, _ := m.view()
	return filter.Apply(ctx, records, spec.Predicate())
}

func (m *Memory) Count(ctx context.Context, spec filter.Spec) (int, error) {
	records, _ := m.view()
	if spec.IsEmpty() {
		return len(records), nil
	}
	pred := spec.Predicate()
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n, ctx.Err()
}

func (m *Memory) Average(ctx context.Context, spec filter.Spec, field filter.NumericField) (float64, error) {
	records, _ := m.view()
	pred := spec.Predicate()
	var sum float64
	n := 0
	for _, r := range records {
		if pred(r) {
			sum += field.Value(r)
			n++
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

func (m *Memory) CountBy(ctx context.Context, spec filter.Spec, field filter.CategoricalField) (models.CountSeries, error) {
	filtered, err := m.Filter(ctx, spec)
	if err != nil {
		return nil, err
	}
	return aggregate.GroupCounts(filtered, field), nil
}

func (m *Memory) Page(ctx context.Context, spec filter.Spec, page, size int) ([]models.CampaignRecord, int, error) {
	records, byAge := m.view()
	_, offset := Offset(page, size)
	pred := spec.Predicate()

	out := make([]models.CampaignRecord, 0, size)
	total := 0
	for _, i := range byAge {
		if !pred(records[i]) {
			continue
		}
		if total >= offset && len(out) < size {
			out = append(out, records[i])
		}
		total++
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (m *Memory) Len(context.Context) (int, error) {
	records, _ := m.view()
	return len(records), nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.info
}

func (m *Memory) Close() error { return nil }
