package rights

import "time"

// PortabilityReport is the denormalized export handed to a data subject.
// Every field is copied out of the stores; the report never references live
// records.
type PortabilityReport struct {
	Subject     SubjectSummary `json:"dataSubject"`
	Consents    []ConsentEntry `json:"consents"`
	AuditTrail  []AuditEntry   `json:"auditLogs"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Format      string         `json:"format"`
	Version     string         `json:"version"`
}

// SubjectSummary is the identity slice of the report.
type SubjectSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Document  string    `json:"document"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConsentEntry echoes one consent record.
type ConsentEntry struct {
	ID             string     `json:"id"`
	Purpose        string     `json:"purpose"`
	DataCategories []string   `json:"dataCategories"`
	Given          bool       `json:"consentGiven"`
	ConsentDate    time.Time  `json:"consentDate"`
	Method         string     `json:"consentMethod"`
	Withdrawn      bool       `json:"consentWithdrawal"`
	WithdrawalDate *time.Time `json:"withdrawalDate,omitempty"`
}

// AuditEntry echoes one audit event.
type AuditEntry struct {
	Action         string    `json:"action"`
	Purpose        string    `json:"purpose"`
	LegalBasis     string    `json:"legalBasis"`
	DataCategories []string  `json:"dataCategories"`
	Actor          string    `json:"actor"`
	Timestamp      time.Time `json:"timestamp"`
	Result         string    `json:"result"`
}

const (
	reportFormat  = "JSON"
	reportVersion = "1.0"
)
