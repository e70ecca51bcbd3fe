package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/hackforge/pkg/domain"
)

type loginDoneMsg struct {
	user domain.UserProfile
	err  error
}

type loginField int

const (
	fieldEmail loginField = iota
	fieldPassword
	fieldFirstName
	fieldLastName
)

// loginModel is the sign-in form shown while the session is anonymous.
// ctrl+n switches it into a registration form.
type loginModel struct {
	d        *deps
	register bool
	focus    loginField
	values   [4]string
	busy     bool
	err      string
	width    int
	height   int
}

func newLoginModel(d *deps) loginModel {
	return loginModel{d: d}
}

func (m loginModel) fields() []loginField {
	if m.register {
		return []loginField{fieldFirstName, fieldLastName, fieldEmail, fieldPassword}
	}
	return []loginField{fieldEmail, fieldPassword}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case loginDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.values[fieldPassword] = ""

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+n":
			m.register = !m.register
			m.focus = m.fields()[0]
			m.err = ""
		case "tab", "down":
			m.focus = m.step(1)
		case "shift+tab", "up":
			m.focus = m.step(-1)
		case "enter":
			if m.focus != fieldPassword {
				m.focus = m.step(1)
				return m, nil
			}
			m.busy = true
			m.err = ""
			return m, m.submit()
		default:
			m.values[m.focus] = editRune(m.values[m.focus], msg.String())
		}
	}
	return m, nil
}

func (m loginModel) step(dir int) loginField {
	fields := m.fields()
	for i, f := range fields {
		if f == m.focus {
			return fields[(i+dir+len(fields))%len(fields)]
		}
	}
	return fields[0]
}

func (m loginModel) submit() tea.Cmd {
	s := m.d.session
	email := strings.TrimSpace(m.values[fieldEmail])
	password := m.values[fieldPassword]
	if !m.register {
		return func() tea.Msg {
			u, err := s.Login(context.Background(), domain.Credentials{Email: email, Password: password})
			return loginDoneMsg{user: u, err: err}
		}
	}
	reg := domain.Registration{
		FirstName: strings.TrimSpace(m.values[fieldFirstName]),
		LastName:  strings.TrimSpace(m.values[fieldLastName]),
		Email:     email,
		Password:  password,
	}
	return func() tea.Msg {
		u, err := s.Register(context.Background(), reg)
		return loginDoneMsg{user: u, err: err}
	}
}

var fieldLabels = map[loginField]string{
	fieldEmail:     "email",
	fieldPassword:  "password",
	fieldFirstName: "first name",
	fieldLastName:  "last name",
}

func (m loginModel) View() string {
	var b strings.Builder
	title := "SIGN IN"
	if m.register {
		title = "CREATE ACCOUNT"
	}
	b.WriteString(" " + sectionHeaderStyle.Render(title) + "\n\n")

	for _, f := range m.fields() {
		val := m.values[f]
		if f == fieldPassword {
			val = strings.Repeat("•", len([]rune(val)))
		}
		label := dimStyle.Render(padRight(fieldLabels[f], 11))
		var input string
		switch {
		case f == m.focus && !m.busy:
			input = normalStyle.Render(val) + accentStyle.Render("█")
			label = inputPromptStyle.Render(padRight(fieldLabels[f], 11))
		case val == "":
			input = inputPlaceholderStyle.Render("…")
		default:
			input = normalStyle.Render(val)
		}
		b.WriteString("  " + label + " " + input + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString("  " + dimStyle.Render("signing in…") + "\n")
	case m.err != "":
		b.WriteString("  " + errorStyle.Render(m.err) + "\n")
	}
	return b.String()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func (m loginModel) helpKeys() string {
	other := "register"
	if m.register {
		other = "sign in"
	}
	return helpLine("tab", "next field", "enter", "submit", "ctrl+n", other, "ctrl+c", "quit")
}
