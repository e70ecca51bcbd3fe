package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// youModel shows the signed-in user's profile.
type youModel struct {
	d       *deps
	confirm bool // "L" pressed once, waiting for "y"
	flash   string
	width   int
	height  int
}

func newYouModel(d *deps) youModel {
	return youModel{d: d}
}

func (m youModel) logoutCmd() tea.Cmd {
	logout := m.d.logout
	return func() tea.Msg {
		if logout != nil {
			logout(context.Background())
		}
		return loggedOutMsg{}
	}
}

func (m youModel) Update(msg tea.Msg) (youModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		m.flash = ""
		if m.confirm {
			m.confirm = false
			if msg.String() == "y" {
				return m, m.logoutCmd()
			}
			return m, nil
		}
		if msg.String() == "L" {
			m.confirm = true
			m.flash = "log out? y to confirm"
		}
	}
	return m, nil
}

func (m youModel) View() string {
	var b strings.Builder
	u := m.d.session.State().User
	if u == nil {
		return " " + dimStyle.Render("not signed in") + "\n"
	}

	b.WriteString(" " + selectedStyle.Render(u.Name()))
	if u.Role != "" {
		b.WriteString("  " + accentStyle.Render(string(u.Role)))
	}
	b.WriteString("\n " + metaStyle.Render(u.Email) + "\n")
	if u.Bio != "" {
		b.WriteString("\n " + normalStyle.Render(u.Bio) + "\n")
	}
	if len(u.Skills) > 0 {
		b.WriteString("\n " + sectionHeaderStyle.Render("SKILLS") + "\n")
		b.WriteString("  " + dimStyle.Render(strings.Join(u.Skills, " · ")) + "\n")
	}
	if links := joinNonEmpty("  ", u.SocialLinks.GitHub, u.SocialLinks.LinkedIn, u.SocialLinks.Twitter, u.SocialLinks.Website); links != "" {
		b.WriteString("\n " + accentStyle.Render(links) + "\n")
	}

	direct, channel := m.d.messages.Unread()
	b.WriteString("\n " + sectionHeaderStyle.Render("INBOX") + "\n")
	b.WriteString(fmt.Sprintf("  %s direct  %s channel\n",
		goldStyle.Render(fmt.Sprintf("%d", direct)),
		goldStyle.Render(fmt.Sprintf("%d", channel))))

	live := metaStyle.Render("offline")
	if m.d.live() {
		live = okStyle.Render("connected")
	}
	b.WriteString("\n " + sectionHeaderStyle.Render("REALTIME") + "  " + live + "\n")
	return b.String()
}

func (m youModel) helpKeys() string {
	if m.confirm {
		return helpLine("y", "log out", "any", "cancel")
	}
	return helpLine("L", "log out", "1-3", "browse", "q", "quit")
}
