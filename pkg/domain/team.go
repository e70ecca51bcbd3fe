package domain

import "time"

// TeamMember is one seat on a team.
type TeamMember struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"` // "leader", "member"
}

// Team is a group of participants entered in a hackathon.
type Team struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	HackathonID       string       `json:"hackathonId,omitempty"`
	LeaderID          string       `json:"leaderId,omitempty"`
	Members           []TeamMember `json:"members,omitempty"`
	MaxSize           int          `json:"maxSize,omitempty"`
	LookingForMembers bool         `json:"lookingForMembers"`
	Skills            []string     `json:"skills,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// EntityID implements Entity.
func (t Team) EntityID() string { return t.ID }

// Full returns true if the team has no open seats.
func (t Team) Full() bool {
	return t.MaxSize > 0 && len(t.Members) >= t.MaxSize
}
