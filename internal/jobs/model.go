package jobs

import (
	"time"

	"jobboard-backend/internal/users"
)

type Job struct {
	ID                     string    `json:"id"`
	Title                  string    `json:"title"`
	Role                   string    `json:"role"`
	Description            string    `json:"description"`
	Company                string    `json:"company"`
	Location               string    `json:"location"`
	RequiredSkills         []string  `json:"requiredSkills"`
	RequiredCertifications []string  `json:"requiredCertifications"`
	OwnerID                string    `json:"ownerId"`
	CreatedAt              time.Time `json:"createdAt"`
}

// View is a job with its owner embedded.
type View struct {
	Job
	Owner *users.Public `json:"owner,omitempty"`
}

func (j Job) clone() Job {
	j.RequiredSkills = append([]string(nil), j.RequiredSkills...)
	j.RequiredCertifications = append([]string(nil), j.RequiredCertifications...)
	return j
}
