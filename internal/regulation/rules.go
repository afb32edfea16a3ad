package regulation

import (
	"fmt"

	"tutela/internal/domain"
)

// The check functions below are pure: they read the activity and the rule
// set and return findings. Consent adequacy lives on the engine because it
// needs ledger access.

func checkPrinciples(rs RuleSet, activity domain.ProcessingActivity) []domain.Violation {
	var violations []domain.Violation
	if activity.Purpose == "" {
		violations = append(violations, domain.Violation{
			Article:     rs.Articles.Purpose,
			Rule:        "purpose_specification",
			Severity:    domain.SeverityHigh,
			Description: "The purpose of processing must be specified",
		})
	}
	if len(activity.DataCategories) == 0 {
		violations = append(violations, domain.Violation{
			Article:     rs.Articles.DataCategories,
			Rule:        "data_categories",
			Severity:    domain.SeverityHigh,
			Description: "Data categories must be specified",
		})
	}
	if len(activity.DataSubjects) == 0 {
		violations = append(violations, domain.Violation{
			Article:     rs.Articles.DataSubjects,
			Rule:        "data_subjects",
			Severity:    domain.SeverityHigh,
			Description: "Data subjects must be specified",
		})
	}
	if activity.ProtectionContact == "" {
		violations = append(violations, domain.Violation{
			Article:     rs.Articles.Contact,
			Rule:        "protection_contact",
			Severity:    domain.SeverityMedium,
			Description: "A data-protection contact must be specified",
		})
	}
	return violations
}

func checkLegalBasis(rs RuleSet, activity domain.ProcessingActivity) []domain.Violation {
	if activity.LegalBasis.IsValid() {
		return nil
	}
	return []domain.Violation{{
		Article:     rs.Articles.LegalBasis,
		Rule:        "legal_basis",
		Severity:    domain.SeverityHigh,
		Description: "Legal basis must be one of the enumerated lawful grounds",
	}}
}

func checkRightsReadiness(rs RuleSet) []domain.Recommendation {
	recommendations := make([]domain.Recommendation, 0, len(rs.Rights))
	for _, right := range rs.Rights {
		recommendations = append(recommendations, domain.Recommendation{
			Article:     rs.Articles.Rights,
			Rule:        "right_" + right,
			Priority:    domain.PriorityHigh,
			Description: fmt.Sprintf("The %s right must be implemented", right),
		})
	}
	return recommendations
}

func checkAdvisoryMeasures(rs RuleSet, activity domain.ProcessingActivity) []domain.Recommendation {
	var recommendations []domain.Recommendation
	for _, advisory := range rs.AdvisoryMeasures {
		if !activity.HasMeasure(advisory.Measure) {
			recommendations = append(recommendations, domain.Recommendation{
				Article:     advisory.Article,
				Rule:        advisory.Rule,
				Priority:    domain.PriorityHigh,
				Description: advisory.Description,
			})
		}
	}
	return recommendations
}

func checkSecurityMeasures(rs RuleSet, activity domain.ProcessingActivity) []domain.Violation {
	var violations []domain.Violation
	for _, measure := range requiredMeasures {
		if !activity.HasMeasure(measure) {
			violations = append(violations, domain.Violation{
				Article:     rs.Articles.Security,
				Rule:        "security_" + measure,
				Severity:    domain.SeverityHigh,
				Description: fmt.Sprintf("Security measure %s must be implemented", measure),
			})
		}
	}
	return violations
}

func checkCrossBorderTransfer(rs RuleSet, activity domain.ProcessingActivity) []domain.Violation {
	if !activity.CrossBorderTransfer {
		return nil
	}
	if len(activity.TransferCountries) == 0 {
		return []domain.Violation{{
			Article:     rs.Articles.Transfer,
			Rule:        "transfer_countries",
			Severity:    domain.SeverityHigh,
			Description: "Transfer countries must be specified",
		}}
	}
	var violations []domain.Violation
	for _, country := range activity.TransferCountries {
		if !adequateCountries[country] {
			violations = append(violations, domain.Violation{
				Article:     rs.Articles.Transfer,
				Rule:        "transfer_adequacy",
				Severity:    domain.SeverityHigh,
				Description: fmt.Sprintf("Transfer to %s requires additional safeguards: no adequate protection", country),
			})
		}
	}
	return violations
}
