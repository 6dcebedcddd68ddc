// Package domain models sanitary sewer overflow (SSO) incident records and
// the pipe failure risk scoring applied to them.
//
// # Data Source
//
// SSO records come from the state water board's spill report export, one CSV
// row per incident. The columns the scoring pipeline inspects are
// pipe_age_years, pipe_material, and spill_date; everything else (location,
// spill volume, cause, responsible agency) passes through untouched.
//
// # Data Quality Conventions
//
// Pipe age ("pipe_age_years" column):
//
//	Ages are self-reported and frequently malformed. Two failure patterns
//	dominate and are repaired by [RepairAge]:
//	  - Install year entered as age: values above 1800 are read as a calendar
//	    year and converted using the spill date (2005 with a 2020 spill → 15).
//	  - Months entered as years: values in (150, 1800] are divided by 12
//	    (600 → 50). 150 years is the plausibility ceiling for a sewer main.
//	Repairs that land outside (0, 150] leave the original value untouched so
//	the record is filtered downstream instead of scored with garbage.
//
// Pipe material ("pipe_material" column):
//
//	Free text with abbreviations, typos, and contaminants ("VCP", "v.c.p",
//	"terra cotta", "GREASE"). [ClassifyMaterial] resolves a label to a
//	MaterialFamily with an ordered first-match rule list; the order is part of
//	the contract because short codes are ambiguous ("AC" is asbestos cement
//	only because no earlier family claims it). [CanonicalMaterial] maps the
//	family to its display name, falling back to the trimmed original for
//	plausible labels no rule recognizes.
//
// # Risk Scoring
//
// The score is a weighted blend of two sub-scores, 80% age and 20% material:
//
//	age_score      = 20                                  for age ≤ 0
//	               = min(100, 20 + (age/100)^1.8 * 80)   otherwise
//	material_score = fixed per family (cast iron 100 … PVC/HDPE 10, default 50)
//	risk_score     = 0.8*age_score + 0.2*material_score
//
// The age curve is convex: failure rates accelerate past 40 years of service
// and the score saturates at 100 from age 100 onward. Risk categories are
// contiguous cuts of the score: ≤40 Low, ≤60 Medium, ≤80 High, else Critical.
//
// # ID Generation
//
// Scored records carry a deterministic SHA-256 ID over their key fields so
// re-running the pipeline over the same export produces the same IDs. See
// [recordID].
package domain
