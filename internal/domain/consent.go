package domain

import (
	"time"

	dErrors "tutela/pkg/domain-errors"
)

// ConsentMethod records how consent was captured.
//
// Usage: construct via ParseConsentMethod at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type ConsentMethod string

const (
	ConsentMethodExplicit ConsentMethod = "explicit"
	ConsentMethodImplicit ConsentMethod = "implicit"
	ConsentMethodOptIn    ConsentMethod = "opt_in"
	ConsentMethodOptOut   ConsentMethod = "opt_out"
)

var validConsentMethods = map[ConsentMethod]bool{
	ConsentMethodExplicit: true,
	ConsentMethodImplicit: true,
	ConsentMethodOptIn:    true,
	ConsentMethodOptOut:   true,
}

// ParseConsentMethod constructs a ConsentMethod from external input.
func ParseConsentMethod(s string) (ConsentMethod, error) {
	m := ConsentMethod(s)
	if !validConsentMethods[m] {
		return "", dErrors.New(dErrors.CodeValidation, "invalid consent method")
	}
	return m, nil
}

func (m ConsentMethod) IsValid() bool { return validConsentMethods[m] }

func (m ConsentMethod) String() string { return string(m) }

// CaptureContext is the transport-supplied context under which a consent was
// recorded. AgentSummary is derived from the raw user agent at capture time.
type CaptureContext struct {
	IPAddress    string
	UserAgent    string
	AgentSummary string
}

// Consent is a data subject's recorded, purpose-scoped permission. It
// references its subject by id (weak link, looked up not embedded). Withdrawal
// happens at most once and is never reversed.
type Consent struct {
	ID             string
	DataSubjectID  string
	Purpose        string
	DataCategories []string
	Given          bool
	ConsentDate    time.Time
	Method         ConsentMethod
	Withdrawn      bool
	WithdrawalDate *time.Time
	Version        string
	Capture        CaptureContext

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Valid reports whether this consent currently authorizes processing for the
// given purpose: given, not withdrawn, exact purpose match.
func (c Consent) Valid(purpose string) bool {
	return c.Given && !c.Withdrawn && c.Purpose == purpose
}
