package domain

import "time"

// HackathonStatus is the lifecycle stage of a hackathon.
type HackathonStatus string

const (
	StatusUpcoming HackathonStatus = "upcoming"
	StatusOngoing  HackathonStatus = "ongoing"
	StatusEnded    HackathonStatus = "ended"
	StatusDraft    HackathonStatus = "draft"
)

// HackathonStatuses lists every status in display order.
var HackathonStatuses = []HackathonStatus{StatusUpcoming, StatusOngoing, StatusEnded, StatusDraft}

// Valid returns true if s is a known status.
func (s HackathonStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusEnded, StatusDraft:
		return true
	}
	return false
}

// Prize is one award offered by a hackathon.
type Prize struct {
	Title  string `json:"title"`
	Amount string `json:"amount,omitempty"`
}

// Hackathon is an event participants register for.
type Hackathon struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	Description          string          `json:"description,omitempty"`
	Status               HackathonStatus `json:"status"`
	Themes               []string        `json:"themes,omitempty"`
	Mode                 string          `json:"mode,omitempty"` // "online", "offline", "hybrid"
	Location             string          `json:"location,omitempty"`
	StartDate            time.Time       `json:"startDate"`
	EndDate              time.Time       `json:"endDate"`
	RegistrationDeadline *time.Time      `json:"registrationDeadline,omitempty"`
	MaxTeamSize          int             `json:"maxTeamSize,omitempty"`
	Prizes               []Prize         `json:"prizes,omitempty"`
	OrganizerID          string          `json:"organizerId,omitempty"`
	ParticipantCount     int             `json:"participantCount"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// EntityID implements Entity.
func (h Hackathon) EntityID() string { return h.ID }

// Judge is a user assigned to evaluate a hackathon's projects.
type Judge struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Expertise   string `json:"expertise,omitempty"`
	HackathonID string `json:"hackathonId"`
}

// EntityID implements Entity.
func (j Judge) EntityID() string { return j.ID }

// Evaluation is a judge's scoring of one project.
type Evaluation struct {
	ID          string         `json:"id"`
	JudgeID     string         `json:"judgeId"`
	ProjectID   string         `json:"projectId"`
	HackathonID string         `json:"hackathonId"`
	Scores      map[string]int `json:"scores"`
	Total       int            `json:"total"`
	Feedback    string         `json:"feedback,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// EntityID implements Entity.
func (e Evaluation) EntityID() string { return e.ID }
