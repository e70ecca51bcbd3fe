package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/naveenspark/hackforge/internal/browser"
	"github.com/naveenspark/hackforge/internal/store"
	"github.com/naveenspark/hackforge/pkg/domain"
)

// -- messages --

type hackathonDetailMsg struct {
	hackathon domain.Hackathon
	judges    []domain.Judge
	evals     []domain.Evaluation
	err       error
}

// -- model --

type hackathonsModel struct {
	d          *deps
	cursor     int
	page       int
	searching  bool
	query      string
	statusIdx  int // index into statusOrder
	themeIdx   int // index into themeOrder
	themeOrder []string
	err        string
	flash      string

	detail    bool
	detailErr string
	judges    []domain.Judge
	evals     []domain.Evaluation

	width  int
	height int
}

// statusOrder is the cycle order for the status filter. "" = any.
var statusOrder = append([]domain.HackathonStatus{""}, domain.HackathonStatuses...)

func newHackathonsModel(d *deps) hackathonsModel {
	return hackathonsModel{d: d, page: 1, themeOrder: []string{""}}
}

func (m hackathonsModel) filter() store.HackathonFilter {
	f := store.HackathonFilter{Search: m.query, Status: statusOrder[m.statusIdx]}
	if t := m.themeOrder[m.themeIdx]; t != "" {
		f.Themes = []string{t}
	}
	return f
}

func (m hackathonsModel) Init() tea.Cmd {
	return m.load()
}

func (m hackathonsModel) load() tea.Cmd {
	s, f, page, size := m.d.hackathons, m.filter(), m.page, m.d.pageSize
	return loadCmd(s.Name(), func(ctx context.Context) error {
		return s.List(ctx, f, page, size)
	})
}

func (m hackathonsModel) loadDetail(id string) tea.Cmd {
	d := m.d
	return func() tea.Msg {
		ctx := context.Background()
		h, err := d.hackathons.Get(ctx, id)
		if err != nil {
			return hackathonDetailMsg{err: err}
		}
		msg := hackathonDetailMsg{hackathon: h}
		if d.judging == nil {
			return msg
		}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			msg.judges, err = d.judging.ListJudges(gctx, id)
			return err
		})
		g.Go(func() error {
			var err error
			msg.evals, err = d.judging.ListEvaluations(gctx, id)
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

// buildThemeOrder collects every theme seen so far so "t" can cycle them.
func (m *hackathonsModel) buildThemeOrder(items []domain.Hackathon) {
	seen := make(map[string]bool, len(m.themeOrder))
	for _, t := range m.themeOrder[1:] {
		seen[t] = true
	}
	added := false
	for _, h := range items {
		for _, t := range h.Themes {
			if t != "" && !seen[t] {
				seen[t] = true
				added = true
			}
		}
	}
	if !added {
		return
	}
	current := m.themeOrder[m.themeIdx]
	themes := make([]string, 0, len(seen))
	for t := range seen {
		themes = append(themes, t)
	}
	sort.Strings(themes)
	m.themeOrder = append([]string{""}, themes...)
	for i, t := range m.themeOrder {
		if t == current {
			m.themeIdx = i
		}
	}
}

func (m hackathonsModel) items() []domain.Hackathon {
	return m.d.hackathons.Snapshot().Items
}

func (m hackathonsModel) selected() (domain.Hackathon, bool) {
	items := m.items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return domain.Hackathon{}, false
	}
	return items[m.cursor], true
}

func (m hackathonsModel) Update(msg tea.Msg) (hackathonsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case listLoadedMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		items := m.items()
		if m.cursor >= len(items) {
			m.cursor = 0
		}
		m.buildThemeOrder(items)

	case hackathonDetailMsg:
		if errors.Is(msg.err, store.ErrSuperseded) {
			return m, nil
		}
		m.detailErr = ""
		if msg.err != nil {
			m.detailErr = msg.err.Error()
		}
		m.judges = msg.judges
		m.evals = msg.evals

	case tea.KeyMsg:
		m.flash = ""
		if m.searching {
			return m.handleSearchKey(msg)
		}
		if m.detail {
			return m.handleDetailKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m hackathonsModel) handleSearchKey(msg tea.KeyMsg) (hackathonsModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.page, m.cursor = 1, 0
		return m, m.load()
	case "esc":
		m.searching = false
		m.query = ""
		m.page, m.cursor = 1, 0
		return m, m.load()
	default:
		m.query = editRune(m.query, msg.String())
	}
	return m, nil
}

func (m hackathonsModel) handleKey(msg tea.KeyMsg) (hackathonsModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.items())-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "/":
		m.searching = true
	case "s":
		m.statusIdx = (m.statusIdx + 1) % len(statusOrder)
		m.page, m.cursor = 1, 0
		return m, m.load()
	case "t":
		if len(m.themeOrder) > 1 {
			m.themeIdx = (m.themeIdx + 1) % len(m.themeOrder)
			m.page, m.cursor = 1, 0
			return m, m.load()
		}
	case "]":
		snap := m.d.hackathons.Snapshot()
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
	case "enter":
		if h, ok := m.selected(); ok {
			m.detail = true
			m.judges, m.evals, m.detailErr = nil, nil, ""
			return m, m.loadDetail(h.ID)
		}
	case "c":
		if h, ok := m.selected(); ok {
			m.copyLink(h.ID)
		}
	case "o":
		if h, ok := m.selected(); ok {
			m.openLink(h.ID)
		}
	}
	return m, nil
}

func (m hackathonsModel) handleDetailKey(msg tea.KeyMsg) (hackathonsModel, tea.Cmd) {
	h, ok := m.d.hackathons.Current()
	switch msg.String() {
	case "esc", "backspace":
		m.detail = false
		m.d.hackathons.ClearCurrent()
	case "r":
		if ok {
			return m, m.loadDetail(h.ID)
		}
	case "c":
		if ok {
			m.copyLink(h.ID)
		}
	case "o":
		if ok {
			m.openLink(h.ID)
		}
	}
	return m, nil
}

func (m *hackathonsModel) copyLink(id string) {
	link := m.d.hackathonURL(id)
	if link == "" {
		m.flash = "no web.url configured"
		return
	}
	if err := clipboard.WriteAll(link); err != nil {
		m.flash = "copy failed: " + err.Error()
		return
	}
	m.flash = "copied " + link
}

func (m *hackathonsModel) openLink(id string) {
	link := m.d.hackathonURL(id)
	if link == "" {
		m.flash = "no web.url configured"
		return
	}
	if err := browser.Open(link); err != nil {
		m.flash = "open failed: " + err.Error()
		return
	}
	m.flash = "opened " + link
}

func (m hackathonsModel) View() string {
	if m.detail {
		return m.viewDetail()
	}

	var b strings.Builder
	snap := m.d.hackathons.Snapshot()

	filters := []string{}
	if st := statusOrder[m.statusIdx]; st != "" {
		filters = append(filters, StatusStyle(st).Render(string(st)))
	}
	if t := m.themeOrder[m.themeIdx]; t != "" {
		filters = append(filters, ThemeStyle(t).Render("#"+t))
	}
	b.WriteString(" " + sectionHeaderStyle.Render("HACKATHONS"))
	if len(filters) > 0 {
		b.WriteString("  " + strings.Join(filters, " "))
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
		b.WriteString(" " + dimStyle.Render("No hackathons match.") + "\n")
		return b.String()
	}

	titleWidth := max(m.width-40, 16)
	for i, h := range snap.Items {
		status := StatusStyle(h.Status).Render(fmt.Sprintf("%-8s", h.Status))
		title := truncStr(h.Title, titleWidth)
		when := metaStyle.Render(formatRange(h.StartDate, h.EndDate))
		line := fmt.Sprintf(" %s %s  %s", status, title, when)
		if i == m.cursor {
			line = selectedRowBg.Render(accentStyle.Render("▸") + line)
		} else {
			line = " " + normalStyle.Render(line)
		}
		b.WriteString(line + "\n")
		if len(h.Themes) > 0 {
			tags := make([]string, 0, len(h.Themes))
			for _, t := range h.Themes {
				tags = append(tags, ThemeStyle(t).Render("#"+t))
			}
			b.WriteString("            " + strings.Join(tags, " ") + "\n")
		}
	}
	b.WriteString("\n " + pager(snap.Page, snap.PageSize, snap.Total) + "\n")
	return b.String()
}

func (m hackathonsModel) viewDetail() string {
	var b strings.Builder
	h, ok := m.d.hackathons.Current()
	if !ok {
		if m.detailErr != "" {
			return " " + errorStyle.Render(m.detailErr) + "\n"
		}
		return " " + dimStyle.Render("loading…") + "\n"
	}

	b.WriteString(" " + selectedStyle.Render(h.Title) + "  " + StatusStyle(h.Status).Render(string(h.Status)) + "\n")
	meta := joinNonEmpty(" · ",
		formatRange(h.StartDate, h.EndDate),
		h.Mode,
		h.Location,
		fmt.Sprintf("%d participants", h.ParticipantCount),
	)
	b.WriteString(" " + metaStyle.Render(meta) + "\n")
	if h.RegistrationDeadline != nil {
		b.WriteString(" " + goldStyle.Render("registration closes "+formatWhen(*h.RegistrationDeadline)) + "\n")
	}
	if h.Description != "" {
		b.WriteString("\n " + normalStyle.Render(h.Description) + "\n")
	}

	if len(h.Prizes) > 0 {
		b.WriteString("\n " + sectionHeaderStyle.Render("PRIZES") + "\n")
		for _, p := range h.Prizes {
			b.WriteString("  " + goldStyle.Render("◆") + " " + normalStyle.Render(joinNonEmpty(" ", p.Title, p.Amount)) + "\n")
		}
	}

	b.WriteString("\n " + sectionHeaderStyle.Render("JUDGES") + "\n")
	if len(m.judges) == 0 {
		b.WriteString("  " + dimStyle.Render("none yet") + "\n")
	}
	for _, j := range m.judges {
		b.WriteString("  " + normalStyle.Render(j.Name) + " " + metaStyle.Render(j.Expertise) + "\n")
	}

	if len(m.evals) > 0 {
		b.WriteString("\n " + sectionHeaderStyle.Render("EVALUATIONS") + "\n")
		for _, e := range m.evals {
			b.WriteString(fmt.Sprintf("  %s %s\n", accentStyle.Render(fmt.Sprintf("%3d", e.Total)), dimStyle.Render(truncStr(e.Feedback, 60))))
		}
	}
	if m.detailErr != "" {
		b.WriteString("\n " + errorStyle.Render(m.detailErr) + "\n")
	}
	return b.String()
}

func (m hackathonsModel) helpKeys() string {
	if m.searching {
		return helpLine("enter", "search", "esc", "clear")
	}
	if m.detail {
		return helpLine("esc", "back", "c", "copy link", "o", "open", "r", "reload")
	}
	return helpLine("j/k", "move", "enter", "open", "/", "search", "s", "status", "t", "theme", "[ ]", "page", "c", "copy link", "q", "quit")
}
