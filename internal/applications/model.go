package applications

import (
	"strings"
	"time"

	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/users"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus upper-cases s and reports whether it is one of the three statuses.
func ParseStatus(s string) (Status, bool) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	return status, status.Valid()
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Final reports whether the status is a decision that warrants a notification.
func (s Status) Final() bool {
	return s == StatusAccepted || s == StatusRejected
}

type Application struct {
	ID             string     `json:"id"`
	JobID          string     `json:"jobId"`
	CandidateID    string     `json:"candidateId"`
	CoverLetter    string     `json:"coverLetter"`
	Skills         []string   `json:"skills"`
	Certifications []string   `json:"certifications"`
	ResumePath     string     `json:"resumePath"`
	ResumeText     string     `json:"resumeText"`
	Status         Status     `json:"status"`
	AIReasoning    *string    `json:"aiReasoning"`
	SubmittedAt    time.Time  `json:"submittedAt"`
	ReviewedAt     *time.Time `json:"reviewedAt"`
}

// Screened reports whether automatic screening already wrote a result.
func (a Application) Screened() bool {
	return a.ReviewedAt != nil
}

// ScreeningResult is the single write the screener makes.
type ScreeningResult struct {
	ResumeText string
	Status     Status
	Reasoning  string
	ReviewedAt time.Time
}

// View is an application with its job and candidate embedded.
type View struct {
	Application
	Job       *jobs.View    `json:"job,omitempty"`
	Candidate *users.Public `json:"candidate,omitempty"`
}

func (a Application) clone() Application {
	a.Skills = append([]string(nil), a.Skills...)
	a.Certifications = append([]string(nil), a.Certifications...)
	if a.AIReasoning != nil {
		r := *a.AIReasoning
		a.AIReasoning = &r
	}
	if a.ReviewedAt != nil {
		at := *a.ReviewedAt
		a.ReviewedAt = &at
	}
	return a
}
