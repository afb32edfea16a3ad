package domain

import "time"

// AuditResult states how an audited operation ended.
type AuditResult string

const (
	ResultSuccess AuditResult = "success"
	ResultFailure AuditResult = "failure"
	ResultBlocked AuditResult = "blocked"
)

// Audit actions emitted by the registries and the rights coordinator.
const (
	ActionRegisterDataSubject = "register_data_subject"
	ActionDeleteDataSubject   = "delete_data_subject"
	ActionRegisterConsent     = "register_consent"
	ActionWithdrawConsent     = "withdraw_consent"
	ActionRegisterProcessing  = "register_data_processing"
	ActionUpdateProcessing    = "update_data_processing"
	ActionDeleteProcessing    = "delete_data_processing"
	ActionExportPortability   = "export_portability_report"
)

// SystemSubject is the DataSubjectID recorded on events not tied to one
// subject.
const SystemSubject = "system"

// AuditEvent is emitted from domain logic to capture every state-changing
// operation. Append-only: events are never updated or deleted, including when
// the referenced subject is erased. Seq is assigned by the trail and is the
// authoritative ordering key; timestamps alone are not unique across writers.
type AuditEvent struct {
	ID             string
	Seq            uint64
	DataSubjectID  string
	Action         string
	Purpose        string
	LegalBasis     LegalBasis
	DataCategories []string
	Actor          string
	Timestamp      time.Time
	IPAddress      string
	UserAgent      string
	Result         AuditResult
	Details        map[string]any
}
