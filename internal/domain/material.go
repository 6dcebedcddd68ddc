package domain

import "strings"

// MaterialFamily identifies the canonical pipe material category a raw label
// resolves to. FamilyUnmatched marks plausible labels no rule recognizes;
// these keep their original text but score as unknown risk.
type MaterialFamily int

const (
	FamilyUnmatched MaterialFamily = iota
	FamilyUnknown
	FamilyVCP
	FamilyConcrete
	FamilyConcreteReinforced
	FamilyCastIron
	FamilyDuctileIron
	FamilyPVC
	FamilyHDPE
	FamilySteel
	FamilyBrick
	FamilyAsbestosCement
	FamilyFiberglass
)

// familyNames are the canonical display names written to the
// pipe_material_standardized column.
var familyNames = map[MaterialFamily]string{
	FamilyUnknown:            "Unknown",
	FamilyVCP:                "VCP",
	FamilyConcrete:           "Concrete",
	FamilyConcreteReinforced: "Concrete (Reinforced)",
	FamilyCastIron:           "Cast Iron",
	FamilyDuctileIron:        "Ductile Iron",
	FamilyPVC:                "PVC",
	FamilyHDPE:               "HDPE",
	FamilySteel:              "Steel",
	FamilyBrick:              "Brick",
	FamilyAsbestosCement:     "Asbestos Cement",
	FamilyFiberglass:         "Fiberglass",
}

// String returns the canonical display name, or "" for FamilyUnmatched.
func (f MaterialFamily) String() string {
	return familyNames[f]
}

// validShortCodes are the 2-letter material codes that are real abbreviations
// rather than data-entry noise. Anything else of length ≤ 2 is rejected.
var validShortCodes = map[string]bool{
	"CI": true, "DI": true, "AC": true, "VC": true, "CP": true,
}

// familyRule matches a family by case-insensitive substring containment
// (contains) or whole-field equality (exact) over the upper-cased, trimmed
// label. Rules are evaluated in order; the first hit wins.
type familyRule struct {
	family   MaterialFamily
	contains []string
	exact    []string
}

// familyRules is the priority-ordered match list. Order is load-bearing:
// "AC" must not be claimed before the clay, concrete, and iron families get
// their turn, and RCP has to resolve inside the concrete rule rather than
// fall through to anything later.
var familyRules = []familyRule{
	{family: FamilyVCP, contains: []string{"VCP", "VITRIFIED", "CLAY", "V.C.P", "TCP", "TERRA COTTA"}, exact: []string{"VC", "V.C.", "BCP"}},
	{family: FamilyConcrete, contains: []string{"CONCRETE", "CONC", "RCP", "NRCP", "CMP"}, exact: []string{"CP", "C.P.", "CON", "CONC.", "CEMENT"}},
	{family: FamilyCastIron, contains: []string{"CAST IRON", "C.I.", "CIP"}, exact: []string{"CI"}},
	{family: FamilyDuctileIron, contains: []string{"DUCTILE", "DIP", "D.I.P"}, exact: []string{"DI"}},
	{family: FamilyPVC, contains: []string{"PVC", "POLYVINYL", "PVCP", "C900", "ABS"}},
	{family: FamilyHDPE, contains: []string{"HDPE", "HPDE", "POLYETHYLENE", "PE", "PLASTIC", "HDP"}},
	{family: FamilySteel, contains: []string{"STEEL"}, exact: []string{"METAL"}},
	{family: FamilyBrick, contains: []string{"BRICK"}, exact: []string{"B/C"}},
	{family: FamilyAsbestosCement, contains: []string{"ASBESTOS", "AC", "A/C", "TRANSITE"}},
	{family: FamilyFiberglass, contains: []string{"FIBERGLASS", "FRP", "TECHITE"}},
	{family: FamilyUnknown, contains: []string{"UNKNOWN", "UKN", "UNK", "OTHER", "N/A", "NONE", "GREASE", "HAIR", "BLUEBELL"}},
}

// ClassifyMaterial resolves a raw material label to its family. Empty,
// purely numeric, and unrecognized short labels are data-entry errors and
// classify as FamilyUnknown. Labels no rule matches return FamilyUnmatched.
func ClassifyMaterial(raw string) MaterialFamily {
	label := strings.ToUpper(strings.TrimSpace(raw))

	if label == "" || isDigits(label) || len(label) <= 2 {
		if !validShortCodes[label] {
			return FamilyUnknown
		}
	}

	for _, rule := range familyRules {
		if !rule.matches(label) {
			continue
		}
		if rule.family == FamilyConcrete && isReinforcedConcrete(label) {
			return FamilyConcreteReinforced
		}
		return rule.family
	}
	return FamilyUnmatched
}

// CanonicalMaterial returns the canonical name for a raw label, or the
// trimmed original when no rule matches so novel but plausible materials
// survive standardization. Canonical names are fixed points: feeding one back
// in returns it unchanged.
func CanonicalMaterial(raw string) string {
	family := ClassifyMaterial(raw)
	if family == FamilyUnmatched {
		return strings.TrimSpace(raw)
	}
	return family.String()
}

func (r familyRule) matches(label string) bool {
	for _, tok := range r.contains {
		if strings.Contains(label, tok) {
			return true
		}
	}
	for _, tok := range r.exact {
		if label == tok {
			return true
		}
	}
	return false
}

func isReinforcedConcrete(label string) bool {
	return strings.Contains(label, "RCP") || strings.Contains(label, "REINFORCED")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
