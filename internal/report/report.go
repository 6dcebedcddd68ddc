// Package report derives validation metrics from a scored spill table and
// serializes them to JSON. The metrics sanity-check the scoring model:
// risk should correlate positively with spill severity indicators, and the
// per-group averages should rise with age and with known-brittle materials.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/sso-risk-etl/internal/adapter/csvio"
	"github.com/couchcryptid/sso-risk-etl/internal/domain"
	"github.com/couchcryptid/sso-risk-etl/internal/pipeline"
	"github.com/couchcryptid/sso-risk-etl/internal/table"
)

// ColCause holds the reported cause of the overflow, when the source data has
// one. It is a pass-through column, never derived.
const ColCause = "spill_cause"

const methodology = "80% Age / 20% Material weighted scoring"

// ageBands are the fixed cut points for the age distribution, lower bound
// exclusive and upper bound inclusive. Ages at or below zero fall outside
// every band and are excluded.
var ageBands = []struct {
	upper float64
	label string
}{
	{30, "0-30"},
	{50, "31-50"},
	{70, "51-70"},
	{90, "71-90"},
	{math.Inf(1), "90+"},
}

// Correlations holds Pearson coefficients against severity indicators. A nil
// value means the indicator column was absent or had too few usable rows.
type Correlations struct {
	RiskVsVolume *float64 `json:"risk_vs_volume"`
	RiskVsWater  *float64 `json:"risk_vs_water"`
}

// GroupCounts carries the record count behind each group mean, so a
// suspicious average can be weighed against its sample size.
type GroupCounts struct {
	ByMaterial map[string]int `json:"by_material"`
	ByAgeBand  map[string]int `json:"by_age_band"`
	ByCategory map[string]int `json:"by_category"`
	ByCause    map[string]int `json:"by_cause"`
}

// Metrics is the validation report written alongside the scored output.
// Every mean map has a matching count map in Counts under the same keys.
type Metrics struct {
	TotalRecords   int                `json:"total_records"`
	RecordsScored  int                `json:"records_scored"`
	RecordsMissing int                `json:"records_missing_age_or_material"`
	Methodology    string             `json:"methodology"`
	Correlations   Correlations       `json:"correlations"`
	ByMaterial     map[string]float64 `json:"avg_risk_by_material"`
	ByAgeBand      map[string]float64 `json:"avg_risk_by_age_band"`
	ByCategory     map[string]float64 `json:"avg_risk_by_category"`
	ByCause        map[string]float64 `json:"avg_risk_by_cause"`
	Counts         GroupCounts        `json:"group_counts"`
}

// Reporter computes validation metrics from scored tables.
type Reporter struct {
	logger *slog.Logger
}

func NewReporter(logger *slog.Logger) *Reporter {
	return &Reporter{logger: logger}
}

// Build computes the validation metrics for a scored table. totalRecords is
// the row count of the raw input, before unscoreable records were dropped.
func (r *Reporter) Build(tbl *table.Table, totalRecords int) Metrics {
	m := Metrics{
		TotalRecords:   totalRecords,
		RecordsScored:  tbl.Len(),
		RecordsMissing: totalRecords - tbl.Len(),
		Methodology:    methodology,
		ByCause:        map[string]float64{},
		Counts:         GroupCounts{ByCause: map[string]int{}},
	}
	m.ByMaterial, m.Counts.ByMaterial = r.groupStats(tbl, materialColumn(tbl))
	m.ByAgeBand, m.Counts.ByAgeBand = r.ageBandStats(tbl)
	m.ByCategory, m.Counts.ByCategory = r.groupStats(tbl, pipeline.ColRiskCategory)
	if tbl.HasColumn(ColCause) {
		m.ByCause, m.Counts.ByCause = r.groupStats(tbl, ColCause)
	}

	m.Correlations.RiskVsVolume = r.volumeCorrelation(tbl)
	m.Correlations.RiskVsWater = r.waterCorrelation(tbl)

	r.logger.Info("validation metrics built",
		"records_scored", m.RecordsScored,
		"materials", len(m.ByMaterial),
		"causes", len(m.ByCause),
	)
	if ranked := SortedGroups(m.ByMaterial); len(ranked) > 0 {
		top := ranked[0]
		r.logger.Info("riskiest material group",
			"material", top,
			"mean_risk", m.ByMaterial[top],
			"count", m.Counts.ByMaterial[top],
		)
	}
	return m
}

// Save writes the metrics as indented JSON, creating parent directories.
func Save(path string, m Metrics) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating metrics directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// SaveFeatureImportance writes the fixed scoring weights as a small CSV for
// downstream dashboards.
func SaveFeatureImportance(path string) error {
	tbl, err := table.FromRows(
		[]string{"feature", "weight", "description"},
		[][]string{
			{
				pipeline.ColAge,
				strconv.FormatFloat(domain.AgeWeight, 'g', -1, 64),
				"Age-based risk score (20-100 scale)",
			},
			{
				pipeline.ColMaterial,
				strconv.FormatFloat(domain.MaterialWeight, 'g', -1, 64),
				"Material-based risk score (10-100 scale, failure rates)",
			},
		},
	)
	if err != nil {
		return fmt.Errorf("building feature importance table: %w", err)
	}
	return csvio.Save(path, tbl)
}

// AgeBand maps an age in years to its distribution band label, or "" when the
// age falls outside every band.
func AgeBand(age float64) string {
	if age <= 0 {
		return ""
	}
	for _, band := range ageBands {
		if age <= band.upper {
			return band.label
		}
	}
	return ""
}

func materialColumn(tbl *table.Table) string {
	if tbl.HasColumn(pipeline.ColMaterialStd) {
		return pipeline.ColMaterialStd
	}
	return pipeline.ColMaterial
}

// groupStats averages the risk score per distinct value of the given column
// and counts the rows behind each mean. Rows with an empty group value or an
// unparseable score are skipped.
func (r *Reporter) groupStats(tbl *table.Table, column string) (map[string]float64, map[string]int) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for row := 0; row < tbl.Len(); row++ {
		group := strings.TrimSpace(tbl.Get(row, column))
		if group == "" {
			continue
		}
		score, ok := tbl.Float(row, pipeline.ColRiskScore)
		if !ok {
			continue
		}
		sums[group] += score
		counts[group]++
	}
	return meansOf(sums, counts), counts
}

func (r *Reporter) ageBandStats(tbl *table.Table) (map[string]float64, map[string]int) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for row := 0; row < tbl.Len(); row++ {
		age, ok := tbl.Float(row, pipeline.ColAge)
		if !ok {
			continue
		}
		band := AgeBand(age)
		if band == "" {
			continue
		}
		score, ok := tbl.Float(row, pipeline.ColRiskScore)
		if !ok {
			continue
		}
		sums[band] += score
		counts[band]++
	}
	return meansOf(sums, counts), counts
}

func meansOf(sums map[string]float64, counts map[string]int) map[string]float64 {
	means := make(map[string]float64, len(sums))
	for group, sum := range sums {
		means[group] = round2(sum / float64(counts[group]))
	}
	return means
}

// volumeCorrelation pairs the risk score with the spill volume, keeping only
// rows with a positive numeric volume.
func (r *Reporter) volumeCorrelation(tbl *table.Table) *float64 {
	if !tbl.HasColumn(pipeline.ColVolume) {
		return nil
	}
	var scores, volumes []float64
	for row := 0; row < tbl.Len(); row++ {
		volume, ok := tbl.Float(row, pipeline.ColVolume)
		if !ok || volume <= 0 {
			continue
		}
		score, ok := tbl.Float(row, pipeline.ColRiskScore)
		if !ok {
			continue
		}
		scores = append(scores, score)
		volumes = append(volumes, volume)
	}
	return correlate(scores, volumes)
}

// waterCorrelation looks for the first column suggesting surface-water
// contact and codes Yes/No answers as 1/0. Numeric cells pass through as-is.
func (r *Reporter) waterCorrelation(tbl *table.Table) *float64 {
	column := ""
	for _, name := range tbl.Header() {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "water") || strings.Contains(lower, "surface") {
			column = name
			break
		}
	}
	if column == "" {
		return nil
	}

	var scores, reached []float64
	for row := 0; row < tbl.Len(); row++ {
		value, ok := waterValue(tbl, row, column)
		if !ok {
			continue
		}
		score, ok := tbl.Float(row, pipeline.ColRiskScore)
		if !ok {
			continue
		}
		scores = append(scores, score)
		reached = append(reached, value)
	}
	return correlate(scores, reached)
}

func waterValue(tbl *table.Table, row int, column string) (float64, bool) {
	switch strings.ToUpper(strings.TrimSpace(tbl.Get(row, column))) {
	case "YES", "Y":
		return 1, true
	case "NO", "N":
		return 0, true
	}
	return tbl.Float(row, column)
}

// correlate computes the Pearson coefficient, returning nil when there are
// fewer than two pairs or either series is constant.
func correlate(x, y []float64) *float64 {
	if len(x) < 2 {
		return nil
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) {
		return nil
	}
	c = round4(c)
	return &c
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// SortedGroups returns the group labels of a mean map ordered by descending
// mean, for stable log output.
func SortedGroups(means map[string]float64) []string {
	groups := make([]string, 0, len(means))
	for group := range means {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(a, b int) bool {
		if means[groups[a]] != means[groups[b]] {
			return means[groups[a]] > means[groups[b]]
		}
		return groups[a] < groups[b]
	})
	return groups
}
