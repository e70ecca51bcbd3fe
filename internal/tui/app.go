package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/hackforge/internal/app"
	"github.com/naveenspark/hackforge/internal/session"
	"github.com/naveenspark/hackforge/internal/store"
)

type view int

const (
	viewHackathons view = iota
	viewTeams
	viewProjects
	viewYou
)

// listLoadedMsg reports the end of a store List call started by a view.
type listLoadedMsg struct {
	store string
	err   error
}

// loggedOutMsg is sent once App.Logout has finished.
type loggedOutMsg struct{}

// App is the root Bubbletea model.
type App struct {
	d          *deps
	version    string
	view       view
	login      loginModel
	hackathons hackathonsModel
	teams      teamsModel
	projects   projectsModel
	you        youModel
	width      int
	height     int
	frame      int
}

// NewApp creates the TUI over a started app.App.
func NewApp(a *app.App, version string) App {
	return newApp(depsFromApp(a), version)
}

func newApp(d *deps, version string) App {
	return App{
		d:          d,
		version:    version,
		login:      newLoginModel(d),
		hackathons: newHackathonsModel(d),
		teams:      newTeamsModel(d),
		projects:   newProjectsModel(d),
		you:        newYouModel(d),
	}
}

func (a App) signedIn() bool {
	return a.d.session.State().Status() == session.Authenticated
}

func (a App) Init() tea.Cmd {
	if !a.signedIn() {
		return shimmerTickCmd()
	}
	return tea.Batch(shimmerTickCmd(), a.hackathons.Init())
}

// loadCmd runs a store List call off the UI goroutine. A superseded call is
// reported as success: a newer one is already on its way.
func loadCmd(name string, list func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		err := list(context.Background())
		if errors.Is(err, store.ErrSuperseded) {
			err = nil
		}
		return listLoadedMsg{store: name, err: err}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + flash(1) + help(1)
		body := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5}
		a.login, _ = a.login.Update(body)
		a.hackathons, _ = a.hackathons.Update(body)
		a.teams, _ = a.teams.Update(body)
		a.projects, _ = a.projects.Update(body)
		a.you, _ = a.you.Update(body)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case loginDoneMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		if msg.err == nil {
			a.view = viewHackathons
			return a, tea.Batch(cmd, a.hackathons.Init())
		}
		return a, cmd

	case loggedOutMsg:
		a.view = viewHackathons
		a.login = newLoginModel(a.d)
		a.hackathons = newHackathonsModel(a.d)
		a.teams = newTeamsModel(a.d)
		a.projects = newProjectsModel(a.d)
		a.you = newYouModel(a.d)
		return a.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})

	case listLoadedMsg:
		var cmd tea.Cmd
		switch msg.store {
		case "hackathons":
			a.hackathons, cmd = a.hackathons.Update(msg)
		case "teams":
			a.teams, cmd = a.teams.Update(msg)
		case "projects":
			a.projects, cmd = a.projects.Update(msg)
		}
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.signedIn() && !a.isEditing() {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "1":
				return a.switchTo(viewHackathons)
			case "2":
				return a.switchTo(viewTeams)
			case "3":
				return a.switchTo(viewProjects)
			case "4":
				return a.switchTo(viewYou)
			}
		}
	}

	var cmd tea.Cmd
	if !a.signedIn() {
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	}
	switch a.view {
	case viewHackathons:
		a.hackathons, cmd = a.hackathons.Update(msg)
	case viewTeams:
		a.teams, cmd = a.teams.Update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.Update(msg)
	case viewYou:
		a.you, cmd = a.you.Update(msg)
	}
	return a, cmd
}

func (a App) switchTo(v view) (tea.Model, tea.Cmd) {
	if a.view == v {
		return a, nil
	}
	a.view = v
	switch v {
	case viewHackathons:
		return a, a.hackathons.Init()
	case viewTeams:
		return a, a.teams.Init()
	case viewProjects:
		return a, a.projects.Init()
	}
	return a, nil
}

func (a App) isEditing() bool {
	switch a.view {
	case viewHackathons:
		return a.hackathons.searching
	case viewTeams:
		return a.teams.searching
	case viewProjects:
		return a.projects.searching
	}
	return false
}

func center(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}

func (a App) statusLine() string {
	st := a.d.session.State()
	if st.User == nil {
		return dimStyle.Render("not signed in")
	}
	live := metaStyle.Render("○ offline")
	if a.d.live() {
		live = okStyle.Render("● live")
	}
	parts := []string{selectedStyle.Render(st.User.Name()), live}
	if direct, channel := a.d.messages.Unread(); direct+channel > 0 {
		parts = append(parts, goldStyle.Render(fmt.Sprintf("%d unread", direct+channel)))
	}
	return strings.Join(parts, metaStyle.Render(" · "))
}

func (a App) tabBar() string {
	tabs := []struct {
		key  string
		name string
		v    view
	}{
		{"1", "Hackathons", viewHackathons},
		{"2", "Teams", viewTeams},
		{"3", "Projects", viewProjects},
		{"4", "You", viewYou},
	}
	colWidth := a.width / len(tabs)
	var b strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		w := lipgloss.Width(label)
		left := max((colWidth-w)/2, 0)
		right := max(colWidth-w-left, 0)
		b.WriteString(strings.Repeat(" ", left) + label + strings.Repeat(" ", right))
	}
	return b.String()
}

func (a App) View() string {
	header := center(renderShimmerLogo(a.frame), a.width) + "\n" + center(a.statusLine(), a.width)

	if !a.signedIn() {
		body := strings.TrimRight(truncateToHeight(a.login.View(), a.height-5), "\n")
		return fmt.Sprintf("%s\n\n%s\n\n%s", header, body, a.login.helpKeys())
	}

	var body, help, flash string
	switch a.view {
	case viewHackathons:
		body, help, flash = a.hackathons.View(), a.hackathons.helpKeys(), a.hackathons.flash
	case viewTeams:
		body, help, flash = a.teams.View(), a.teams.helpKeys(), ""
	case viewProjects:
		body, help, flash = a.projects.View(), a.projects.helpKeys(), ""
	case viewYou:
		body, help, flash = a.you.View(), a.you.helpKeys(), a.you.flash
		if a.version != "" {
			body += "\n " + metaStyle.Render("hackforge "+a.version) + "\n"
		}
	}
	if flash != "" {
		flash = " " + accentStyle.Render(flash)
	}
	body = strings.TrimRight(truncateToHeight(body, a.height-5), "\n")
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, a.tabBar(), body, flash, help)
}
