package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/hackforge/internal/store"
)

type teamsModel struct {
	d         *deps
	cursor    int
	page      int
	searching bool
	query     string
	looking   bool // only teams looking for members
	err       string
	width     int
	height    int
}

func newTeamsModel(d *deps) teamsModel {
	return teamsModel{d: d, page: 1}
}

func (m teamsModel) Init() tea.Cmd {
	return m.load()
}

func (m teamsModel) load() tea.Cmd {
	s, page, size := m.d.teams, m.page, m.d.pageSize
	f := store.TeamFilter{Search: m.query, LookingForMembers: m.looking}
	return loadCmd(s.Name(), func(ctx context.Context) error {
		return s.List(ctx, f, page, size)
	})
}

func (m teamsModel) Update(msg tea.Msg) (teamsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case listLoadedMsg:
		m.err = ""
		if msg.err != nil {
			m.err = msg.err.Error()
		}
		if n := len(m.d.teams.Snapshot().Items); m.cursor >= n {
			m.cursor = 0
		}

	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter":
				m.searching = false
			case "esc":
				m.searching = false
				m.query = ""
			default:
				m.query = editRune(m.query, msg.String())
				return m, nil
			}
			m.page, m.cursor = 1, 0
			return m, m.load()
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m teamsModel) handleKey(msg tea.KeyMsg) (teamsModel, tea.Cmd) {
	snap := m.d.teams.Snapshot()
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(snap.Items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "/":
		m.searching = true
	case "l":
		m.looking = !m.looking
		m.page, m.cursor = 1, 0
		return m, m.load()
	case "]":
		if snap.PageSize > 0 && m.page*snap.PageSize < snap.Total {
			m.page++
			m.cursor = 0
			return m, m.load()
		}
	case "[":
		if m.page > 1 {
			m.page--
			m.cursor = 0
			return m, m.load()
		}
	case "r":
		return m, m.load()
	}
	return m, nil
}

func (m teamsModel) View() string {
	var b strings.Builder
	snap := m.d.teams.Snapshot()

	b.WriteString(" " + sectionHeaderStyle.Render("TEAMS"))
	if m.looking {
		b.WriteString("  " + okStyle.Render("looking for members"))
	}
	if snap.Loading {
		b.WriteString("  " + dimStyle.Render("loading…"))
	}
	b.WriteString("\n")
	b.WriteString(searchBar(m.query, m.searching))
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
		return b.String()
	}
	if len(snap.Items) == 0 && !snap.Loading {
		b.WriteString(" " + dimStyle.Render("No teams yet.") + "\n")
		return b.String()
	}

	for i, t := range snap.Items {
		seats := fmt.Sprintf("%d", len(t.Members))
		if t.MaxSize > 0 {
			seats = fmt.Sprintf("%d/%d", len(t.Members), t.MaxSize)
		}
		badge := ""
		switch {
		case t.Full():
			badge = metaStyle.Render("full")
		case t.LookingForMembers:
			badge = okStyle.Render("recruiting")
		}
		line := fmt.Sprintf(" %-24s %s %s", truncStr(t.Name, 24), metaStyle.Render(fmt.Sprintf("%5s", seats)), badge)
		if i == m.cursor {
			b.WriteString(selectedRowBg.Render(accentStyle.Render("▸")+selectedStyle.Render(line)) + "\n")
		} else {
			b.WriteString(" " + normalStyle.Render(line) + "\n")
		}
		if i == m.cursor && len(t.Skills) > 0 {
			b.WriteString("   " + dimStyle.Render(strings.Join(t.Skills, ", ")) + "\n")
		}
	}
	b.WriteString("\n " + pager(snap.Page, snap.PageSize, snap.Total) + "\n")
	return b.String()
}

func (m teamsModel) helpKeys() string {
	if m.searching {
		return helpLine("enter", "search", "esc", "clear")
	}
	return helpLine("j/k", "move", "/", "search", "l", "recruiting", "[ ]", "page", "r", "reload", "q", "quit")
}
