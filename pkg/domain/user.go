package domain

import "time"

// Role is a platform role assigned to a user.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleJudge       Role = "judge"
	RoleAdmin       Role = "admin"
)

// SocialLinks are the optional profile links shown on a portfolio.
type SocialLinks struct {
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Website  string `json:"website,omitempty"`
}

// UserProfile is the identity of a platform user.
type UserProfile struct {
	ID          string      `json:"id"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Email       string      `json:"email"`
	Avatar      string      `json:"avatar,omitempty"`
	Role        Role        `json:"role,omitempty"`
	Bio         string      `json:"bio,omitempty"`
	SocialLinks SocialLinks `json:"socialLinks"`
	Skills      []string    `json:"skills,omitempty"`
	Interests   []string    `json:"interests,omitempty"`
	CreatedAt   time.Time   `json:"createdAt,omitempty"`
}

// Name returns the display name of the user.
func (u UserProfile) Name() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// EntityID implements Entity.
func (u UserProfile) EntityID() string { return u.ID }

// UserPatch is a shallow partial update of a UserProfile.
// Nil fields leave the existing value untouched.
type UserPatch struct {
	FirstName   *string      `json:"firstName,omitempty"`
	LastName    *string      `json:"lastName,omitempty"`
	Email       *string      `json:"email,omitempty"`
	Avatar      *string      `json:"avatar,omitempty"`
	Role        *Role        `json:"role,omitempty"`
	Bio         *string      `json:"bio,omitempty"`
	SocialLinks *SocialLinks `json:"socialLinks,omitempty"`
	Skills      []string     `json:"skills,omitempty"`
	Interests   []string     `json:"interests,omitempty"`
}

// Apply merges the patch into u and returns the result. u is not modified.
func (p UserPatch) Apply(u UserProfile) UserProfile {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.SocialLinks != nil {
		u.SocialLinks = *p.SocialLinks
	}
	if p.Skills != nil {
		u.Skills = append([]string(nil), p.Skills...)
	}
	if p.Interests != nil {
		u.Interests = append([]string(nil), p.Interests...)
	}
	return u
}

// Clone returns a copy of u that shares no slices with it.
func (u UserProfile) Clone() UserProfile {
	u.Skills = append([]string(nil), u.Skills...)
	u.Interests = append([]string(nil), u.Interests...)
	return u
}
