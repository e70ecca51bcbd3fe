package devserver

import (
	"time"

	"github.com/naveenspark/hackforge/pkg/domain"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "hackforge"

// Seed fills the server with demo data: an organizer, a judge, three
// hackathons with teams and projects, and one evaluation.
func (s *Server) Seed() error {
	org, err := s.AddUser(domain.Registration{FirstName: "Ada", LastName: "Organizer", Email: "ada@hackforge.dev", Password: DemoPassword}, domain.RoleOrganizer)
	if err != nil {
		return err
	}
	judge, err := s.AddUser(domain.Registration{FirstName: "Grace", LastName: "Judge", Email: "grace@hackforge.dev", Password: DemoPassword}, domain.RoleJudge)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Hour)
	day := 24 * time.Hour
	hs := s.AddHackathons(
		domain.Hackathon{
			Title: "Climate Hack", Description: "Tools for a cooler planet.",
			Status: domain.StatusEnded, Themes: []string{"climate", "data"}, Mode: "online",
			StartDate: now.Add(-30 * day), EndDate: now.Add(-28 * day), MaxTeamSize: 4,
			Prizes: []domain.Prize{{Title: "Grand prize", Amount: "$5,000"}}, OrganizerID: org.User.ID,
		},
		domain.Hackathon{
			Title: "AI for Good", Description: "Applied machine learning for public benefit.",
			Status: domain.StatusOngoing, Themes: []string{"ai", "health"}, Mode: "hybrid", Location: "Berlin",
			StartDate: now.Add(-day), EndDate: now.Add(day), MaxTeamSize: 5, OrganizerID: org.User.ID,
		},
		domain.Hackathon{
			Title: "Web3 Builders", Description: "Decentralized apps weekend.",
			Status: domain.StatusUpcoming, Themes: []string{"web3"}, Mode: "offline", Location: "Lisbon",
			StartDate: now.Add(14 * day), EndDate: now.Add(16 * day), MaxTeamSize: 4, OrganizerID: org.User.ID,
		},
	)
	climate, ai := hs[0], hs[1]

	teams := s.AddTeams(
		domain.Team{Name: "Carbon Crunchers", HackathonID: climate.ID, LeaderID: org.User.ID, MaxSize: 4,
			Members: []domain.TeamMember{{UserID: org.User.ID, Name: org.User.Name(), Role: "leader"}}},
		domain.Team{Name: "Neural Nomads", HackathonID: ai.ID, MaxSize: 5, LookingForMembers: true, Skills: []string{"python", "go"}},
	)
	projects := s.AddProjects(
		domain.Project{Title: "Footprint Lens", HackathonID: climate.ID, TeamID: teams[0].ID, Status: "judged",
			Technologies: []string{"go", "postgres"}, RepoURL: "https://github.com/example/footprint-lens"},
		domain.Project{Title: "Triage Assistant", HackathonID: ai.ID, TeamID: teams[1].ID, Status: "draft",
			Technologies: []string{"python"}},
	)

	j := s.AddJudge(domain.Judge{UserID: judge.User.ID, Name: judge.User.Name(), Email: judge.User.Email, Expertise: "sustainability", HackathonID: climate.ID})
	s.AddEvaluation(domain.Evaluation{
		JudgeID: j.ID, ProjectID: projects[0].ID, HackathonID: climate.ID,
		Scores:   map[string]int{"impact": 9, "technical": 8, "presentation": 7},
		Feedback: "Clear impact story; data pipeline is solid.",
	})
	return nil
}
