// Package pipeline orchestrates the preprocessing run: age repair, material
// canonicalization, filtering, scoring, and ranking over a spill record table.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/sso-risk-etl/internal/domain"
	"github.com/couchcryptid/sso-risk-etl/internal/observability"
	"github.com/couchcryptid/sso-risk-etl/internal/table"
)

// Source columns the pipeline inspects.
const (
	ColAge       = "pipe_age_years"
	ColMaterial  = "pipe_material"
	ColSpillDate = "spill_date"
	ColVolume    = "spill_volume_gal"
)

// Derived and audit columns, appended in this order.
const (
	ColAgeOriginal      = "pipe_age_years_original"
	ColMaterialOriginal = "pipe_material_original"
	ColMaterialStd      = "pipe_material_standardized"
	ColRecordID         = "record_id"
	ColAgeScore         = "age_score"
	ColMaterialScore    = "material_score"
	ColRiskScore        = "risk_score"
	ColRiskCategory     = "risk_category"
	ColRiskRank         = "risk_rank"
	ColProcessedAt      = "processed_at"
)

var derivedColumns = []string{
	ColAgeOriginal,
	ColMaterialOriginal,
	ColMaterialStd,
	ColRecordID,
	ColAgeScore,
	ColMaterialScore,
	ColRiskScore,
	ColRiskCategory,
	ColRiskRank,
	ColProcessedAt,
}

// Stats reports the record counts observed at each stage of a run.
type Stats struct {
	TotalRecords    int `json:"total_records"`
	AgesRepaired    int `json:"ages_repaired"`
	MissingAge      int `json:"missing_age"`
	MissingMaterial int `json:"missing_material"`
	RecordsDropped  int `json:"records_dropped"`
	RecordsScored   int `json:"records_scored"`

	MaterialVariantsBefore int `json:"material_variants_before"`
	MaterialVariantsAfter  int `json:"material_variants_after"`
}

// Preprocessor runs the repair → canonicalize → filter → score pass.
type Preprocessor struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool

	mu        sync.Mutex
	lastStats Stats
}

// New creates a Preprocessor with the given observability.
func New(logger *slog.Logger, metrics *observability.Metrics) *Preprocessor {
	return &Preprocessor{
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once at least one run has completed.
func (p *Preprocessor) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return fmt.Errorf("no preprocessing run has completed yet")
	}
	return nil
}

// LastRunStats returns the stats of the most recent completed run.
func (p *Preprocessor) LastRunStats() (Stats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastStats, p.ready.Load()
}

// Run executes one preprocessing pass over tbl and returns the scored table
// (surviving rows only, original order) plus stage counts. The input table is
// extended in place with the derived columns; callers should treat it as
// consumed.
func (p *Preprocessor) Run(tbl *table.Table) (*table.Table, Stats, error) {
	for _, col := range []string{ColAge, ColMaterial} {
		if !tbl.HasColumn(col) {
			return nil, Stats{}, fmt.Errorf("input table is missing column %q", col)
		}
	}
	for _, col := range derivedColumns {
		if err := tbl.AddColumn(col); err != nil {
			return nil, Stats{}, fmt.Errorf("add derived column: %w", err)
		}
	}

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	stats := Stats{TotalRecords: tbl.Len()}
	p.metrics.RecordsRead.Add(float64(tbl.Len()))
	p.logger.Info("preprocessing started", "records", tbl.Len())

	ages, hasAge := p.repairAges(tbl, &stats)
	p.canonicalizeMaterials(tbl, &stats)
	kept := p.filterRecords(tbl, ages, hasAge, &stats)
	p.scoreRecords(kept, &stats)
	rankRecords(kept)

	stats.RecordsDropped = stats.TotalRecords - stats.RecordsScored

	p.mu.Lock()
	p.lastStats = stats
	p.mu.Unlock()
	p.ready.Store(true)

	p.logger.Info("preprocessing complete",
		"records_scored", stats.RecordsScored,
		"records_dropped", stats.RecordsDropped,
		"ages_repaired", stats.AgesRepaired,
		"material_variants_before", stats.MaterialVariantsBefore,
		"material_variants_after", stats.MaterialVariantsAfter,
	)
	return kept, stats, nil
}

// repairAges coerces the age column to numeric, applies the repair rules, and
// preserves the pre-repair value in the audit column. Returns the repaired
// age and validity flag per row.
func (p *Preprocessor) repairAges(tbl *table.Table, stats *Stats) ([]float64, []bool) {
	defer p.observeStage("repair")()

	ages := make([]float64, tbl.Len())
	hasAge := make([]bool, tbl.Len())

	for row := 0; row < tbl.Len(); row++ {
		tbl.Set(row, ColAgeOriginal, tbl.Get(row, ColAge))

		raw, ok := tbl.Float(row, ColAge)
		if !ok {
			continue
		}

		repaired := domain.RepairAge(raw, tbl.Get(row, ColSpillDate))
		if repaired != raw {
			stats.AgesRepaired++
			p.metrics.AgesRepaired.Inc()
			p.logger.Debug("age repaired", "row", row, "from", raw, "to", repaired)
			tbl.Set(row, ColAge, formatFloat(repaired))
		}

		ages[row] = repaired
		hasAge[row] = true
	}
	return ages, hasAge
}

// canonicalizeMaterials standardizes every material label, keeping the raw
// value in the audit column, and counts distinct variants before and after.
func (p *Preprocessor) canonicalizeMaterials(tbl *table.Table, stats *Stats) {
	defer p.observeStage("canonicalize")()

	before := map[string]struct{}{}
	after := map[string]struct{}{}

	for row := 0; row < tbl.Len(); row++ {
		raw := tbl.Get(row, ColMaterial)
		tbl.Set(row, ColMaterialOriginal, raw)

		canonical := domain.CanonicalMaterial(raw)
		tbl.Set(row, ColMaterialStd, canonical)

		if strings.TrimSpace(raw) != "" {
			before[raw] = struct{}{}
		}
		after[canonical] = struct{}{}
	}

	stats.MaterialVariantsBefore = len(before)
	stats.MaterialVariantsAfter = len(after)
}

// filterRecords drops rows whose age is still missing after repair or whose
// raw material is absent. Repair happens first so a repaired age is never
// dropped; the material check deliberately looks at the raw value, not the
// canonical one.
func (p *Preprocessor) filterRecords(tbl *table.Table, ages []float64, hasAge []bool, stats *Stats) *table.Table {
	defer p.observeStage("filter")()

	for row := 0; row < tbl.Len(); row++ {
		if !hasAge[row] {
			stats.MissingAge++
			p.metrics.RecordsDropped.WithLabelValues("missing_age").Inc()
		}
		if strings.TrimSpace(tbl.Get(row, ColMaterial)) == "" {
			stats.MissingMaterial++
			if hasAge[row] {
				p.metrics.RecordsDropped.WithLabelValues("missing_material").Inc()
			}
		}
	}

	return tbl.Filter(func(row int) bool {
		return hasAge[row] && strings.TrimSpace(tbl.Get(row, ColMaterial)) != ""
	})
}

// scoreRecords computes sub-scores, the weighted risk score, and the category
// for every surviving row.
func (p *Preprocessor) scoreRecords(tbl *table.Table, stats *Stats) {
	defer p.observeStage("score")()

	for row := 0; row < tbl.Len(); row++ {
		age, _ := tbl.Float(row, ColAge)
		scored := domain.ScoreRecord(domain.PipeRecord{
			AgeYears:    age,
			HasAge:      true,
			RawMaterial: tbl.Get(row, ColMaterial),
			SpillDate:   tbl.Get(row, ColSpillDate),
		})

		tbl.Set(row, ColRecordID, scored.ID)
		tbl.Set(row, ColAgeScore, formatFloat(scored.AgeScore))
		tbl.Set(row, ColMaterialScore, formatFloat(scored.MaterialScore))
		tbl.Set(row, ColRiskScore, formatFloat(scored.RiskScore))
		tbl.Set(row, ColRiskCategory, scored.RiskCategory)
		tbl.Set(row, ColProcessedAt, scored.ProcessedAt.Format(time.RFC3339))

		stats.RecordsScored++
		p.metrics.RecordsScored.Inc()
	}
}

// rankRecords assigns risk_rank: 1 for the highest risk score, ties sharing
// the minimum rank.
func rankRecords(tbl *table.Table) {
	rows := make([]int, tbl.Len())
	for i := range rows {
		rows[i] = i
	}
	score := func(row int) float64 {
		v, _ := tbl.Float(row, ColRiskScore)
		return v
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return score(rows[a]) > score(rows[b])
	})

	rank := 0
	prev := 0.0
	for i, row := range rows {
		s := score(row)
		if i == 0 || s != prev {
			rank = i + 1
			prev = s
		}
		tbl.Set(row, ColRiskRank, strconv.Itoa(rank))
	}
}

// observeStage returns a func that records the stage duration when deferred.
func (p *Preprocessor) observeStage(stage string) func() {
	start := time.Now()
	return func() {
		p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// formatFloat renders a float the shortest way that round-trips, matching how
// scores and ages appear in the output CSV.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
