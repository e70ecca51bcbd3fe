package store

import (
	"go.uber.org/zap"

	"github.com/naveenspark/hackforge/internal/events"
	"github.com/naveenspark/hackforge/pkg/domain"
)

type (
	// Hackathons caches hackathons and the current hackathon.
	Hackathons = Store[domain.Hackathon]
	// Projects caches projects and the current project.
	Projects = Store[domain.Project]
	// Teams caches teams and the current team.
	Teams = Store[domain.Team]
)

// NewHackathons returns the hackathon store.
func NewHackathons(b Backend[domain.Hackathon], logger *zap.Logger) *Hackathons {
	return New[domain.Hackathon]("hackathons", b, events.KindHackathonUpdated, logger)
}

// NewProjects returns the project store.
func NewProjects(b Backend[domain.Project], logger *zap.Logger) *Projects {
	return New[domain.Project]("projects", b, events.KindProjectUpdated, logger)
}

// NewTeams returns the team store.
func NewTeams(b Backend[domain.Team], logger *zap.Logger) *Teams {
	return New[domain.Team]("teams", b, events.KindTeamUpdated, logger)
}
