package domain

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestAgeScore_Floor(t *testing.T) {
	for _, age := range []float64{0, -1, -100, -0.0001} {
		assert.Equal(t, 20.0, AgeScore(age), "age %g", age)
	}
}

func TestAgeScore_Ceiling(t *testing.T) {
	for _, age := range []float64{100, 100.1, 150, 1000} {
		assert.Equal(t, 100.0, AgeScore(age), "age %g", age)
	}
}

func TestAgeScore_Formula(t *testing.T) {
	tests := []struct {
		age      float64
		expected float64
	}{
		{1, 20 + math.Pow(0.01, 1.8)*80},
		{40, 20 + math.Pow(0.40, 1.8)*80},
		{50, 20 + math.Pow(0.50, 1.8)*80},
		{99, 20 + math.Pow(0.99, 1.8)*80},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.expected, AgeScore(tt.age), 1e-12, "age %g", tt.age)
	}
}

func TestAgeScore_Monotonic(t *testing.T) {
	prev := AgeScore(0.01)
	for age := 0.5; age <= 100; age += 0.5 {
		cur := AgeScore(age)
		assert.GreaterOrEqual(t, cur, prev, "age %g", age)
		prev = cur
	}
}

func TestMaterialScore_FixedTable(t *testing.T) {
	tests := []struct {
		family   MaterialFamily
		expected float64
	}{
		{FamilyCastIron, 100},
		{FamilyConcrete, 70},
		{FamilyConcreteReinforced, 70},
		{FamilySteel, 60},
		{FamilyVCP, 50},
		{FamilyAsbestosCement, 36},
		{FamilyDuctileIron, 18},
		{FamilyPVC, 10},
		{FamilyHDPE, 10},

		// No fixed entry: moderate default.
		{FamilyBrick, 50},
		{FamilyFiberglass, 50},
		{FamilyUnknown, 50},
		{FamilyUnmatched, 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, MaterialScore(tt.family), "family %v", tt.family)

		// Repeated calls are identical.
		assert.Equal(t, MaterialScore(tt.family), MaterialScore(tt.family))
	}
}

func TestRiskScore_Weights(t *testing.T) {
	assert.InDelta(t, 0.8*60+0.2*100, RiskScore(60, 100), 1e-12)
	assert.InDelta(t, 20.0, RiskScore(20, 20), 1e-12)
}

func TestRiskCategory_Partition(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{0, CategoryLow},
		{18, CategoryLow},
		{40, CategoryLow}, // boundary belongs to the lower band
		{40.0001, CategoryMedium},
		{60, CategoryMedium},
		{60.0001, CategoryHigh},
		{80, CategoryHigh},
		{80.0001, CategoryCritical},
		{100, CategoryCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, RiskCategory(tt.score), "score %g", tt.score)
	}
}

func TestRiskCategory_CoversWholeRange(t *testing.T) {
	// Every score in [0,100] lands in exactly one of the four bands.
	valid := map[string]bool{
		CategoryLow: true, CategoryMedium: true, CategoryHigh: true, CategoryCritical: true,
	}
	for s := 0.0; s <= 100.0; s += 0.25 {
		assert.True(t, valid[RiskCategory(s)], "score %g", s)
	}
}

func TestScoreRecord(t *testing.T) {
	fixedTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	t.Run("forty year old VCP scores Low", func(t *testing.T) {
		rec := PipeRecord{AgeYears: 40, HasAge: true, RawMaterial: "VCP", SpillDate: "2020-01-01"}
		scored := ScoreRecord(rec)

		expectedAge := 20 + math.Pow(0.40, 1.8)*80
		assert.InDelta(t, expectedAge, scored.AgeScore, 1e-12)
		assert.Equal(t, 50.0, scored.MaterialScore)
		assert.InDelta(t, 0.8*expectedAge+0.2*50, scored.RiskScore, 1e-12)
		assert.Equal(t, CategoryLow, scored.RiskCategory)
		assert.Equal(t, "VCP", scored.CanonicalMaterial)
		assert.Equal(t, fixedTime, scored.ProcessedAt)
	})

	t.Run("old cast iron scores Critical", func(t *testing.T) {
		rec := PipeRecord{AgeYears: 95, HasAge: true, RawMaterial: "Cast Iron"}
		scored := ScoreRecord(rec)

		assert.Equal(t, 100.0, scored.MaterialScore)
		assert.Equal(t, CategoryCritical, scored.RiskCategory)
	})

	t.Run("unmatched material keeps original label", func(t *testing.T) {
		rec := PipeRecord{AgeYears: 10, HasAge: true, RawMaterial: " Orangeburg "}
		scored := ScoreRecord(rec)

		assert.Equal(t, FamilyUnmatched, scored.MaterialFamily)
		assert.Equal(t, "Orangeburg", scored.CanonicalMaterial)
		assert.Equal(t, 50.0, scored.MaterialScore)
	})

	t.Run("deterministic ID", func(t *testing.T) {
		rec := PipeRecord{AgeYears: 40, HasAge: true, RawMaterial: "VCP", SpillDate: "2020-01-01"}
		first := ScoreRecord(rec)
		second := ScoreRecord(rec)

		assert.Equal(t, first.ID, second.ID)
		assert.Contains(t, first.ID, "sso-")

		other := ScoreRecord(PipeRecord{AgeYears: 41, HasAge: true, RawMaterial: "VCP", SpillDate: "2020-01-01"})
		assert.NotEqual(t, first.ID, other.ID)
	})
}
