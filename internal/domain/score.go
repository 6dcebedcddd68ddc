package domain

import "math"

// Sub-score weights. Age dominates: empirical failure studies put age at
// roughly four times the predictive weight of material, and the 80/20 split
// keeps material uncertainty from moving the final score more than a few
// points.
const (
	AgeWeight      = 0.80
	MaterialWeight = 0.20
)

// Risk category names, from the bottom cut up.
const (
	CategoryLow      = "Low"
	CategoryMedium   = "Medium"
	CategoryHigh     = "High"
	CategoryCritical = "Critical"
)

// materialScores is the fixed risk score per family, reflecting H2S corrosion
// susceptibility, root intrusion, joint degradation, and expected service
// life. Families without an entry (brick, fiberglass, unknown, unmatched)
// score the moderate default: not enough failure data to claim otherwise.
var materialScores = map[MaterialFamily]float64{
	FamilyCastIron:           100, // severe H2S corrosion, brittle, old joints
	FamilyConcrete:           70,  // H2S corrosion up to 10mm/yr
	FamilyConcreteReinforced: 70,
	FamilySteel:              60, // corrosion susceptible
	FamilyVCP:                50, // long pipe life, but root intrusion via failed joints
	FamilyAsbestosCement:     36, // brittle joints, H2S resistant
	FamilyDuctileIron:        18,
	FamilyPVC:                10, // H2S immune, flexible, good joints
	FamilyHDPE:               10,
}

// defaultMaterialScore is the conservative moderate assumption for materials
// with no fixed entry.
const defaultMaterialScore = 50

// AgeScore maps pipe age in years to a 20–100 risk score on a convex curve.
// New and invalid ages (≤ 0) floor at 20; the curve saturates at 100 from
// age 100 onward.
func AgeScore(age float64) float64 {
	if age <= 0 {
		return 20
	}
	score := 20 + math.Pow(age/100, 1.8)*80
	return math.Min(100, score)
}

// MaterialScore returns the fixed 10–100 risk score for a material family.
func MaterialScore(family MaterialFamily) float64 {
	if score, ok := materialScores[family]; ok {
		return score
	}
	return defaultMaterialScore
}

// RiskScore blends the two sub-scores with the fixed 80/20 weights. No
// rounding here: rounding is a reporting concern.
func RiskScore(ageScore, materialScore float64) float64 {
	return AgeWeight*ageScore + MaterialWeight*materialScore
}

// RiskCategory discretizes a risk score into four contiguous bands. Boundary
// values belong to the lower band: 40 is Low, 60 is Medium, 80 is High.
func RiskCategory(score float64) string {
	switch {
	case score <= 40:
		return CategoryLow
	case score <= 60:
		return CategoryMedium
	case score <= 80:
		return CategoryHigh
	default:
		return CategoryCritical
	}
}
