package httptransport

import (
	"time"

	"tutela/internal/domain"
)

type subjectRequest struct {
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Document            string     `json:"document"`
	Phone               string     `json:"phone,omitempty"`
	Address             string     `json:"address,omitempty"`
	BirthDate           *time.Time `json:"birthDate,omitempty"`
	Nationality         string     `json:"nationality,omitempty"`
	DataCategories      []string   `json:"dataCategories"`
	ProcessingBasis     string     `json:"processingBasis,omitempty"`
	DataRetentionPeriod int        `json:"dataRetentionPeriod,omitempty"`
}

type subjectResponse struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Document            string     `json:"document"`
	Phone               string     `json:"phone,omitempty"`
	Address             string     `json:"address,omitempty"`
	BirthDate           *time.Time `json:"birthDate,omitempty"`
	Nationality         string     `json:"nationality,omitempty"`
	ConsentGiven        bool       `json:"consentGiven"`
	DataCategories      []string   `json:"dataCategories"`
	ProcessingBasis     string     `json:"processingBasis,omitempty"`
	DataRetentionPeriod int        `json:"dataRetentionPeriod,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func toSubjectResponse(s *domain.DataSubject) subjectResponse {
	return subjectResponse{
		ID:                  s.ID,
		Name:                s.Name,
		Email:               s.Email,
		Document:            s.Document,
		Phone:               s.Phone,
		Address:             s.Address,
		BirthDate:           s.BirthDate,
		Nationality:         s.Nationality,
		ConsentGiven:        s.ConsentGiven,
		DataCategories:      s.DataCategories,
		ProcessingBasis:     s.ProcessingBasis.String(),
		DataRetentionPeriod: s.DataRetentionPeriod,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

type consentRequest struct {
	DataSubjectID  string     `json:"dataSubjectId"`
	Purpose        string     `json:"purpose"`
	DataCategories []string   `json:"dataCategories"`
	Given          bool       `json:"consentGiven"`
	ConsentDate    *time.Time `json:"consentDate,omitempty"`
	Method         string     `json:"consentMethod,omitempty"`
	Version        string     `json:"version,omitempty"`
}

type consentResponse struct {
	ID             string     `json:"id"`
	DataSubjectID  string     `json:"dataSubjectId"`
	Purpose        string     `json:"purpose"`
	DataCategories []string   `json:"dataCategories"`
	Given          bool       `json:"consentGiven"`
	ConsentDate    time.Time  `json:"consentDate"`
	Method         string     `json:"consentMethod"`
	Withdrawn      bool       `json:"consentWithdrawal"`
	WithdrawalDate *time.Time `json:"withdrawalDate,omitempty"`
	Version        string     `json:"version,omitempty"`
	IPAddress      string     `json:"ipAddress,omitempty"`
	UserAgent      string     `json:"userAgent,omitempty"`
	AgentSummary   string     `json:"agentSummary,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func toConsentResponse(c *domain.Consent) consentResponse {
	return consentResponse{
		ID:             c.ID,
		DataSubjectID:  c.DataSubjectID,
		Purpose:        c.Purpose,
		DataCategories: c.DataCategories,
		Given:          c.Given,
		ConsentDate:    c.ConsentDate,
		Method:         c.Method.String(),
		Withdrawn:      c.Withdrawn,
		WithdrawalDate: c.WithdrawalDate,
		Version:        c.Version,
		IPAddress:      c.Capture.IPAddress,
		UserAgent:      c.Capture.UserAgent,
		AgentSummary:   c.Capture.AgentSummary,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

type processingRequest struct {
	Purpose             string   `json:"purpose"`
	LegalBasis          string   `json:"legalBasis"`
	DataCategories      []string `json:"dataCategories"`
	DataSubjects        []string `json:"dataSubjects"`
	RetentionPeriod     int      `json:"retentionPeriod,omitempty"`
	SecurityMeasures    []string `json:"securityMeasures"`
	ThirdPartySharing   bool     `json:"thirdPartySharing,omitempty"`
	ThirdParties        []string `json:"thirdParties,omitempty"`
	CrossBorderTransfer bool     `json:"crossBorderTransfer,omitempty"`
	TransferCountries   []string `json:"transferCountries,omitempty"`
	ProtectionContact   string   `json:"protectionContact,omitempty"`
}

type processingResponse struct {
	ID                  string    `json:"id"`
	Purpose             string    `json:"purpose"`
	LegalBasis          string    `json:"legalBasis"`
	DataCategories      []string  `json:"dataCategories"`
	DataSubjects        []string  `json:"dataSubjects"`
	RetentionPeriod     int       `json:"retentionPeriod,omitempty"`
	SecurityMeasures    []string  `json:"securityMeasures"`
	ThirdPartySharing   bool      `json:"thirdPartySharing"`
	ThirdParties        []string  `json:"thirdParties,omitempty"`
	CrossBorderTransfer bool      `json:"crossBorderTransfer"`
	TransferCountries   []string  `json:"transferCountries,omitempty"`
	ProtectionContact   string    `json:"protectionContact,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func toProcessingResponse(a *domain.ProcessingActivity) processingResponse {
	return processingResponse{
		ID:                  a.ID,
		Purpose:             a.Purpose,
		LegalBasis:          a.LegalBasis.String(),
		DataCategories:      a.DataCategories,
		DataSubjects:        a.DataSubjects,
		RetentionPeriod:     a.RetentionPeriod,
		SecurityMeasures:    a.SecurityMeasures,
		ThirdPartySharing:   a.ThirdPartySharing,
		ThirdParties:        a.ThirdParties,
		CrossBorderTransfer: a.CrossBorderTransfer,
		TransferCountries:   a.TransferCountries,
		ProtectionContact:   a.ProtectionContact,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

type violationResponse struct {
	Article     string `json:"article"`
	Rule        string `json:"rule"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

type recommendationResponse struct {
	Article     string `json:"article"`
	Rule        string `json:"rule"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

type checkResponse struct {
	Regime          string                   `json:"regime"`
	Passed          bool                     `json:"passed"`
	Violations      []violationResponse      `json:"violations"`
	Recommendations []recommendationResponse `json:"recommendations"`
	Timestamp       time.Time                `json:"timestamp"`
	Details         checkDetailsResponse     `json:"details"`
}

type checkDetailsResponse struct {
	Processing          *processingResponse `json:"processing,omitempty"`
	DataSubjectID       string              `json:"dataSubjectId,omitempty"`
	ViolationCount      int                 `json:"violationCount"`
	RecommendationCount int                 `json:"recommendationCount"`
}

func toCheckResponse(check *domain.ComplianceCheck) checkResponse {
	out := checkResponse{
		Regime:          check.Regime,
		Passed:          check.Passed,
		Violations:      make([]violationResponse, 0, len(check.Violations)),
		Recommendations: make([]recommendationResponse, 0, len(check.Recommendations)),
		Timestamp:       check.Timestamp,
		Details: checkDetailsResponse{
			DataSubjectID:       check.Details.DataSubjectID,
			ViolationCount:      check.Details.ViolationCount,
			RecommendationCount: check.Details.RecommendationCount,
		},
	}
	if check.Details.Processing != nil {
		processing := toProcessingResponse(check.Details.Processing)
		out.Details.Processing = &processing
	}
	for _, v := range check.Violations {
		out.Violations = append(out.Violations, violationResponse{
			Article:     v.Article,
			Rule:        v.Rule,
			Severity:    string(v.Severity),
			Description: v.Description,
		})
	}
	for _, r := range check.Recommendations {
		out.Recommendations = append(out.Recommendations, recommendationResponse{
			Article:     r.Article,
			Rule:        r.Rule,
			Priority:    string(r.Priority),
			Description: r.Description,
		})
	}
	return out
}

type auditEventResponse struct {
	ID             string         `json:"id"`
	Seq            uint64         `json:"seq"`
	DataSubjectID  string         `json:"dataSubjectId"`
	Action         string         `json:"action"`
	Purpose        string         `json:"purpose,omitempty"`
	LegalBasis     string         `json:"legalBasis,omitempty"`
	DataCategories []string       `json:"dataCategories,omitempty"`
	Actor          string         `json:"actor"`
	Timestamp      time.Time      `json:"timestamp"`
	IPAddress      string         `json:"ipAddress,omitempty"`
	UserAgent      string         `json:"userAgent,omitempty"`
	Result         string         `json:"result"`
	Details        map[string]any `json:"details,omitempty"`
}

func toAuditEventResponse(e domain.AuditEvent) auditEventResponse {
	return auditEventResponse{
		ID:             e.ID,
		Seq:            e.Seq,
		DataSubjectID:  e.DataSubjectID,
		Action:         e.Action,
		Purpose:        e.Purpose,
		LegalBasis:     e.LegalBasis.String(),
		DataCategories: e.DataCategories,
		Actor:          e.Actor,
		Timestamp:      e.Timestamp,
		IPAddress:      e.IPAddress,
		UserAgent:      e.UserAgent,
		Result:         string(e.Result),
		Details:        e.Details,
	}
}
