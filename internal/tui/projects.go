package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/hackforge/internal/store"
)

type projectsModel struct {
	d         *deps
	cursor    int
	page      int
	searching bool
	query     string
	err       string
	width     int
	height    int
}

func newProjectsModel(d *deps) projectsModel {
	return projectsModel{d: d, page: 1}
}

func (m projectsModel) Init() tea.Cmd {
	return m.load()
}

func (m projectsModel) load() tea.Cmd {
	s, page, size := m.d.projects, m.page, m.d.pageSize
	f := store.ProjectFilter{Search: m.query}
	return loadCmd(s.Name(), func(ctx context.Context) error {
		return s.List(ctx, f, page, size)
	})
}

func (m projectsModel) Update(msg tea.Msg) (projectsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case listLoadedMsg:
		m.err = ""
		if msg.err != nil {
			m.err = msg.err.Error()
		}
		if n := len(m.d.projects.Snapshot().Items); m.cursor >= n {
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
		snap := m.d.projects.Snapshot()
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
	}
	return m, nil
}

func (m projectsModel) View() string {
	var b strings.Builder
	snap := m.d.projects.Snapshot()

	b.WriteString(" " + sectionHeaderStyle.Render("PROJECTS"))
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
		b.WriteString(" " + dimStyle.Render("No projects submitted.") + "\n")
		return b.String()
	}

	for i, p := range snap.Items {
		line := fmt.Sprintf(" %-28s %s", truncStr(p.Title, 28), metaStyle.Render(p.Status))
		if i == m.cursor {
			b.WriteString(selectedRowBg.Render(accentStyle.Render("▸")+selectedStyle.Render(line)) + "\n")
			if tech := strings.Join(p.Technologies, " · "); tech != "" {
				b.WriteString("   " + dimStyle.Render(tech) + "\n")
			}
			if links := joinNonEmpty("  ", p.RepoURL, p.DemoURL); links != "" {
				b.WriteString("   " + accentStyle.Render(links) + "\n")
			}
			continue
		}
		b.WriteString(" " + normalStyle.Render(line) + "\n")
	}
	b.WriteString("\n " + pager(snap.Page, snap.PageSize, snap.Total) + "\n")
	return b.String()
}

func (m projectsModel) helpKeys() string {
	if m.searching {
		return helpLine("enter", "search", "esc", "clear")
	}
	return helpLine("j/k", "move", "/", "search", "[ ]", "page", "r", "reload", "q", "quit")
}
