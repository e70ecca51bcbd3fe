package tui

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/naveenspark/hackforge/internal/session"
	"github.com/naveenspark/hackforge/internal/storage"
	"github.com/naveenspark/hackforge/internal/store"
	"github.com/naveenspark/hackforge/pkg/domain"
)

// stubBackend serves a fixed item set and records the last list query.
type stubBackend[T domain.Entity] struct {
	mu      sync.Mutex
	items   []T
	queries []url.Values
	err     error
}

func (b *stubBackend[T]) lastQuery() url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queries) == 0 {
		return nil
	}
	return b.queries[len(b.queries)-1]
}

func (b *stubBackend[T]) List(_ context.Context, q url.Values) (*domain.Page[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, q)
	if b.err != nil {
		return nil, b.err
	}
	return &domain.Page[T]{Items: b.items, Total: len(b.items), Page: 1}, nil
}

func (b *stubBackend[T]) Get(_ context.Context, id string) (*T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, it := range b.items {
		if it.EntityID() == id {
			return &it, nil
		}
	}
	return nil, errors.New("not found")
}

func (b *stubBackend[T]) Create(context.Context, any) (*T, error) { return nil, errors.New("read only") }
func (b *stubBackend[T]) Update(context.Context, string, any) (*T, error) {
	return nil, errors.New("read only")
}
func (b *stubBackend[T]) Delete(context.Context, string) error { return errors.New("read only") }

// stubAuth accepts one password for any email.
type stubAuth struct{ password string }

func (a stubAuth) Login(_ context.Context, c domain.Credentials) (*domain.AuthResult, error) {
	if c.Password != a.password {
		return nil, errors.New("Invalid email or password")
	}
	return &domain.AuthResult{User: domain.UserProfile{ID: uuid.NewString(), FirstName: "Ada", LastName: "Lovelace", Email: c.Email}, AccessToken: "tok"}, nil
}

func (a stubAuth) Register(_ context.Context, r domain.Registration) (*domain.AuthResult, error) {
	return &domain.AuthResult{User: domain.UserProfile{ID: uuid.NewString(), FirstName: r.FirstName, LastName: r.LastName, Email: r.Email}, AccessToken: "tok"}, nil
}

func (stubAuth) Logout(context.Context) error { return nil }
func (stubAuth) UploadAvatar(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("not used")
}
func (stubAuth) SetToken(string) {}

type stubJudging struct{}

func (stubJudging) ListJudges(context.Context, string) ([]domain.Judge, error) {
	return []domain.Judge{{ID: "j1", Name: "Grace Hopper", Expertise: "compilers"}}, nil
}

func (stubJudging) ListEvaluations(context.Context, string) ([]domain.Evaluation, error) {
	return []domain.Evaluation{{ID: "e1", Total: 24, Feedback: "solid demo"}}, nil
}

type fixture struct {
	d          *deps
	hackathons *stubBackend[domain.Hackathon]
	teams      *stubBackend[domain.Team]
	projects   *stubBackend[domain.Project]
}

func newFixture() *fixture {
	now := time.Now()
	f := &fixture{
		hackathons: &stubBackend[domain.Hackathon]{items: []domain.Hackathon{
			{ID: "h1", Title: "Climate Hack", Status: domain.StatusEnded, Themes: []string{"climate", "data"}, StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(0, -1, 2)},
			{ID: "h2", Title: "AI for Good", Status: domain.StatusOngoing, Themes: []string{"ai"}, StartDate: now, EndDate: now.AddDate(0, 0, 2)},
		}},
		teams: &stubBackend[domain.Team]{items: []domain.Team{
			{ID: "t1", Name: "Carbon Crunchers", MaxSize: 4, Members: []domain.TeamMember{{UserID: "u1"}}},
			{ID: "t2", Name: "Neural Nomads", LookingForMembers: true},
		}},
		projects: &stubBackend[domain.Project]{items: []domain.Project{
			{ID: "p1", Title: "Grid Forecaster", Status: "submitted", Technologies: []string{"go", "sqlite"}},
		}},
	}
	f.d = &deps{
		session:    session.New(stubAuth{password: "hackforge"}, storage.NewMemory(), nil),
		hackathons: store.NewHackathons(f.hackathons, nil),
		teams:      store.NewTeams(f.teams, nil),
		projects:   store.NewProjects(f.projects, nil),
		messages:   store.NewMessages(nil),
		judging:    stubJudging{},
		webURL:     "https://hackforge.dev",
		pageSize:   12,
	}
	return f
}

func (f *fixture) signIn() {
	_ = f.d.session.SetAuth(context.Background(), domain.UserProfile{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@hackforge.dev"}, "tok")
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m tea.Model, text string) tea.Model {
	for _, r := range text {
		m, _ = m.Update(keyMsg(string(r)))
	}
	return m
}

// drain runs cmd and feeds every message it yields back into m, following
// batches. Ticks are dropped so the loop ends.
func drain(m tea.Model, cmd tea.Cmd) tea.Model {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, shimmerTickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			var next tea.Cmd
			m, next = m.Update(msg)
			queue = append(queue, next)
		}
	}
	return m
}
