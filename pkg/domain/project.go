package domain

import "time"

// Project is a hackathon submission.
type Project struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	HackathonID  string     `json:"hackathonId,omitempty"`
	TeamID       string     `json:"teamId,omitempty"`
	RepoURL      string     `json:"repoUrl,omitempty"`
	DemoURL      string     `json:"demoUrl,omitempty"`
	Technologies []string   `json:"technologies,omitempty"`
	Images       []string   `json:"images,omitempty"`
	Status       string     `json:"status,omitempty"` // "draft", "submitted", "judged"
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// EntityID implements Entity.
func (p Project) EntityID() string { return p.ID }
