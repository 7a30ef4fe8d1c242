package models

import "strings"

// Subject is a monitored person with a visit schedule.
type Subject struct {
	// ID is the stable identifier assigned by the subject service.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// CPF is the civil registry number. Format is not checked here.
	CPF string `json:"cpf"`

	// Active subjects take part in scheduling; inactive ones only show under "all".
	Active bool `json:"active"`

	// LastVerifiedDate is the last recorded visit, in one of the accepted
	// literal formats (DD/MM/YYYY HH:mm:ss, DD/MM/YYYY, YYYY/MM/DD).
	LastVerifiedDate string `json:"last_verified_date"`

	// VerifyFrequencyInDays is the number of days between required visits.
	VerifyFrequencyInDays int `json:"verify_frequency_in_days"`
}

// Validate checks the structural fields of a subject. Date parsing is left to
// the schedule package so that a bad date only disables classification.
func (s *Subject) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(s.ID) == "" {
		validation.Add("id", ErrInvalidSubjectID)
	}
	if strings.TrimSpace(s.Name) == "" {
		validation.Add("name", ErrInvalidSubjectName)
	}
	if strings.TrimSpace(s.CPF) == "" {
		validation.Add("cpf", ErrInvalidCPF)
	}
	if s.VerifyFrequencyInDays < 0 {
		validation.Add("verify_frequency_in_days", ErrInvalidFrequency)
	}
	return validation.Err()
}

// StatusLabel renders the active flag the way the dashboard shows it.
func (s Subject) StatusLabel() string {
	if s.Active {
		return "Ativo"
	}
	return "Inativo"
}

// CloneSubjects returns a copy of the slice so callers can't alias a working set.
func CloneSubjects(in []Subject) []Subject {
	if in == nil {
		return nil
	}
	return append([]Subject(nil), in...)
}
