package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// maxInputLen is the maximum number of runes allowed in form and search inputs.
const maxInputLen = 200

// formatWhen renders a timestamp relative to now: "in 3d", "2h ago".
func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "tbd"
	}
	d := time.Until(t)
	suffix := ""
	prefix := "in "
	if d < 0 {
		d = -d
		prefix, suffix = "", " ago"
	}
	var s string
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		s = fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		s = fmt.Sprintf("%dh", int(d.Hours()))
	default:
		s = fmt.Sprintf("%dd", int(d.Hours()/24))
	}
	return prefix + s + suffix
}

// formatRange renders a start/end date pair as "Mar 3 - Mar 5".
func formatRange(start, end time.Time) string {
	if start.IsZero() {
		return "dates tbd"
	}
	if end.IsZero() || sameDay(start, end) {
		return start.Format("Jan 2")
	}
	return start.Format("Jan 2") + " - " + end.Format("Jan 2")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen < 1 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// editRune processes a keystroke for inline text editing. Backspace removes
// one rune, a single printable rune is appended, anything else is ignored.
func editRune(text, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	case "space":
		key = " "
	}
	if utf8.RuneCountInString(key) == 1 && utf8.RuneCountInString(text) < maxInputLen {
		return text + key
	}
	return text
}

// truncateToHeight limits output to maxLines newline-delimited lines.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// searchBar renders the "/" search input shared by the list views.
func searchBar(query string, active bool) string {
	if !active && query == "" {
		return ""
	}
	if active {
		return " " + searchStyle.Render("/") + " " + normalStyle.Render(query) + accentStyle.Render("█") + "\n"
	}
	return " " + searchStyle.Render("/") + " " + dimStyle.Render(query) + "\n"
}

// pager renders "page 2/5 · 47 total".
func pager(page, pageSize, total int) string {
	if total == 0 || pageSize < 1 {
		return ""
	}
	pages := (total + pageSize - 1) / pageSize
	return metaStyle.Render(fmt.Sprintf("page %d/%d · %d total", page, pages, total))
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
