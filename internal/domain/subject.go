package domain

import "time"

// DataSubject is the natural person whose personal data is processed. Owned
// by the subject registry; destroyed only through the rights coordinator.
type DataSubject struct {
	ID          string
	Name        string
	Email       string
	Document    string
	Phone       string
	Address     string
	BirthDate   *time.Time
	Nationality string

	// Privacy attributes.
	ConsentGiven        bool
	DataCategories      []string
	ProcessingBasis     LegalBasis
	DataRetentionPeriod int // days; zero means unspecified

	CreatedAt time.Time
	UpdatedAt time.Time
}
