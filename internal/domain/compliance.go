package domain

import "time"

// Severity grades a violation.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Priority grades a recommendation.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Violation is a rule failure that makes a processing activity
// non-compliant. The Article label comes from the evaluated regime's rule
// set.
type Violation struct {
	Article     string
	Rule        string
	Severity    Severity
	Description string
}

// Recommendation is an advisory finding. Recommendations never affect
// ComplianceCheck.Passed.
type Recommendation struct {
	Article     string
	Rule        string
	Priority    Priority
	Description string
}

// CheckDetails echoes what was evaluated, matching the report shape
// downstream consumers already parse.
type CheckDetails struct {
	Processing          *ProcessingActivity
	DataSubjectID       string
	ViolationCount      int
	RecommendationCount int
}

// ComplianceCheck is the regulation engine's result. Derived, not persisted.
// Passed is true iff Violations is empty.
type ComplianceCheck struct {
	Regime          string
	Passed          bool
	Violations      []Violation
	Recommendations []Recommendation
	Timestamp       time.Time
	Details         CheckDetails
}
