package regulation

import "tutela/internal/domain"

// ArticleLabels carries a regime's citation text for each rule. The two
// supported regimes run the same checks; only the labels and rights
// vocabulary differ, so the engine is written once and parameterized.
type ArticleLabels struct {
	Purpose        string
	DataCategories string
	DataSubjects   string
	Contact        string
	LegalBasis     string
	ConsentMissing string
	ConsentInvalid string
	Rights         string
	Security       string
	Transfer       string
	SubjectLookup  string
}

// AdvisoryMeasure is a regime-specific measure tag that, when absent from an
// activity's security measures, yields a recommendation rather than a
// violation.
type AdvisoryMeasure struct {
	Measure     string
	Article     string
	Rule        string
	Description string
}

// RuleSet parameterizes the engine for one regulatory regime.
type RuleSet struct {
	Regime   string
	Articles ArticleLabels

	// Rights is the regime's subject-rights vocabulary; one recommendation
	// is emitted per entry on every evaluation.
	Rights []string

	// AdvisoryMeasures are checked between the rights and security steps.
	AdvisoryMeasures []AdvisoryMeasure
}

// requiredMeasures is the baseline security-measure set shared by both
// regimes; each absence is one violation.
var requiredMeasures = []string{
	domain.MeasureEncryption,
	domain.MeasureAccessControl,
	domain.MeasureAuditLogging,
	domain.MeasureBackup,
	domain.MeasureAnonymization,
}

// adequateCountries is the fixed adequate-protection allow-list for
// cross-border transfers.
var adequateCountries = map[string]bool{
	"EU":          true,
	"UK":          true,
	"Switzerland": true,
	"Canada":      true,
	"New Zealand": true,
}

// RegimeA returns the rule set for the Brazilian-style regime.
func RegimeA() RuleSet {
	return RuleSet{
		Regime: "regime_a",
		Articles: ArticleLabels{
			Purpose:        "Art. 6º, I",
			DataCategories: "Art. 6º, II",
			DataSubjects:   "Art. 6º, III",
			Contact:        "Art. 6º, IV",
			LegalBasis:     "Art. 7º",
			ConsentMissing: "Art. 9º",
			ConsentInvalid: "Art. 9º",
			Rights:         "Art. 18º",
			Security:       "Art. 46",
			Transfer:       "Art. 48",
			SubjectLookup:  "Art. 18º",
		},
		Rights: []string{"access", "correction", "deletion", "portability", "information"},
	}
}

// RegimeB returns the rule set for the European-style regime. It carries
// three advisory measures the other regime does not name.
func RegimeB() RuleSet {
	return RuleSet{
		Regime: "regime_b",
		Articles: ArticleLabels{
			Purpose:        "Art. 5(1)(a)",
			DataCategories: "Art. 5(1)(b)",
			DataSubjects:   "Art. 5(1)(c)",
			Contact:        "Art. 5(1)(d)",
			LegalBasis:     "Art. 6",
			ConsentMissing: "Art. 7",
			ConsentInvalid: "Art. 7",
			Rights:         "Art. 15-22",
			Security:       "Art. 32",
			Transfer:       "Art. 44-49",
			SubjectLookup:  "Art. 15",
		},
		Rights: []string{"access", "rectification", "erasure", "portability", "objection"},
		AdvisoryMeasures: []AdvisoryMeasure{
			{
				Measure:     "right_to_be_forgotten",
				Article:     "Art. 17",
				Rule:        "right_to_be_forgotten",
				Description: "The right to be forgotten must be implemented",
			},
			{
				Measure:     "data_portability",
				Article:     "Art. 20",
				Rule:        "data_portability",
				Description: "Data portability must be implemented",
			},
			{
				Measure:     "privacy_by_design",
				Article:     "Art. 25",
				Rule:        "privacy_by_design",
				Description: "Privacy by design must be implemented",
			},
		},
	}
}

// RuleSetFor maps a regime tag to its rule set.
func RuleSetFor(regime string) (RuleSet, bool) {
	switch regime {
	case "regime_a":
		return RegimeA(), true
	case "regime_b":
		return RegimeB(), true
	default:
		return RuleSet{}, false
	}
}
