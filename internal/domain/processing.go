package domain

import (
	"time"

	dErrors "tutela/pkg/domain-errors"
)

// LegalBasis is the lawful ground permitting a processing activity.
//
// Usage: construct via ParseLegalBasis at trust boundaries. The regulation
// engine treats an out-of-enum basis as a violation, not an error, so
// ProcessingActivity carries the raw value and validates at evaluation time.
type LegalBasis string

const (
	BasisConsent             LegalBasis = "consent"
	BasisContract            LegalBasis = "contract"
	BasisLegalObligation     LegalBasis = "legal_obligation"
	BasisVitalInterests      LegalBasis = "vital_interests"
	BasisPublicInterest      LegalBasis = "public_interest"
	BasisLegitimateInterests LegalBasis = "legitimate_interests"
)

var validLegalBases = map[LegalBasis]bool{
	BasisConsent:             true,
	BasisContract:            true,
	BasisLegalObligation:     true,
	BasisVitalInterests:      true,
	BasisPublicInterest:      true,
	BasisLegitimateInterests: true,
}

// ParseLegalBasis constructs a LegalBasis from external input.
func ParseLegalBasis(s string) (LegalBasis, error) {
	b := LegalBasis(s)
	if !validLegalBases[b] {
		return "", dErrors.New(dErrors.CodeValidation, "invalid legal basis")
	}
	return b, nil
}

func (b LegalBasis) IsValid() bool { return validLegalBases[b] }

func (b LegalBasis) String() string { return string(b) }

// Security measure tags checked by the regulation engine.
const (
	MeasureEncryption    = "encryption"
	MeasureAccessControl = "access_control"
	MeasureAuditLogging  = "audit_logging"
	MeasureBackup        = "backup"
	MeasureAnonymization = "anonymization"
)

// ProcessingActivity is a declared, purpose-bound use of personal data.
// Registration does not prove lawfulness; that is the regulation engine's
// job at evaluation time.
type ProcessingActivity struct {
	ID               string
	Purpose          string
	LegalBasis       LegalBasis
	DataCategories   []string
	DataSubjects     []string
	RetentionPeriod  int // days
	SecurityMeasures []string

	ThirdPartySharing bool
	ThirdParties      []string

	CrossBorderTransfer bool
	TransferCountries   []string

	// ProtectionContact is the contact-of-record for data-protection queries.
	ProtectionContact string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasMeasure reports whether the activity declares a security measure tag.
func (p ProcessingActivity) HasMeasure(measure string) bool {
	for _, m := range p.SecurityMeasures {
		if m == measure {
			return true
		}
	}
	return false
}

// References reports whether the activity's subject list contains subjectID.
func (p ProcessingActivity) References(subjectID string) bool {
	for _, s := range p.DataSubjects {
		if s == subjectID {
			return true
		}
	}
	return false
}
