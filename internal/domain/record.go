package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// PipeRecord is the typed view of one spill report row, limited to the fields
// the scoring pipeline inspects. The table layer carries everything else.
type PipeRecord struct {
	AgeYears    float64 // repaired age in years; meaningless when HasAge is false
	HasAge      bool    // false when the age cell was empty or non-numeric
	RawMaterial string  // material label exactly as reported
	SpillDate   string  // event date string, used only for age repair
}

// ScoredRecord is a PipeRecord plus every derived scoring attribute. Records
// are never mutated after scoring.
type ScoredRecord struct {
	PipeRecord

	ID               string
	MaterialFamily   MaterialFamily
	CanonicalMaterial string
	AgeScore         float64
	MaterialScore    float64
	RiskScore        float64
	RiskCategory     string
	ProcessedAt      time.Time
}

// ScoreRecord classifies, scores, and categorizes a repaired record. Pure
// apart from the ProcessedAt stamp, which comes from the package clock so
// tests can freeze it.
func ScoreRecord(rec PipeRecord) ScoredRecord {
	family := ClassifyMaterial(rec.RawMaterial)

	canonical := family.String()
	if family == FamilyUnmatched {
		canonical = CanonicalMaterial(rec.RawMaterial)
	}

	ageScore := AgeScore(rec.AgeYears)
	materialScore := MaterialScore(family)
	riskScore := RiskScore(ageScore, materialScore)

	return ScoredRecord{
		PipeRecord:        rec,
		ID:                recordID(rec),
		MaterialFamily:    family,
		CanonicalMaterial: canonical,
		AgeScore:          ageScore,
		MaterialScore:     materialScore,
		RiskScore:         riskScore,
		RiskCategory:      RiskCategory(riskScore),
		ProcessedAt:       clock.Now().UTC(),
	}
}

// recordID produces a deterministic ID from the record's key fields.
// Reprocessing the same export yields the same IDs, so downstream joins and
// replays stay stable.
func recordID(rec PipeRecord) string {
	input := fmt.Sprintf("%s|%s|%g", rec.SpillDate, rec.RawMaterial, rec.AgeYears)
	hash := sha256.Sum256([]byte(input))
	return "sso-" + hex.EncodeToString(hash[:8])
}
