package store

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/naveenspark/hackforge/pkg/domain"
)

// Filter turns a filter value into query parameters. Empty values must be
// left out rather than sent as "".
type Filter interface {
	Query() url.Values
}

// HackathonFilter narrows the hackathon collection. Set fields combine with AND.
type HackathonFilter struct {
	Search string                 // substring match, done by the server
	Status domain.HackathonStatus // "" = any
	Themes []string               // match any of the selected themes
}

// Query implements Filter.
func (f HackathonFilter) Query() url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if themes := nonBlank(f.Themes); len(themes) > 0 {
		q.Set("themes", strings.Join(themes, ","))
	}
	return q
}

// clone returns a copy that shares no slice with f.
func (f HackathonFilter) clone() Filter {
	f.Themes = slices.Clone(f.Themes)
	return f
}

// Validate rejects statuses outside the known set.
func (f HackathonFilter) Validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("unknown hackathon status %q", f.Status)
	}
	return nil
}

// ProjectFilter narrows the project collection.
type ProjectFilter struct {
	HackathonID string
	TeamID      string
	Search      string
}

// Query implements Filter.
func (f ProjectFilter) Query() url.Values {
	q := url.Values{}
	setIf(q, "hackathonId", f.HackathonID)
	setIf(q, "teamId", f.TeamID)
	setIf(q, "search", f.Search)
	return q
}

// TeamFilter narrows the team collection.
type TeamFilter struct {
	HackathonID       string
	Search            string
	LookingForMembers bool
}

// Query implements Filter.
func (f TeamFilter) Query() url.Values {
	q := url.Values{}
	setIf(q, "hackathonId", f.HackathonID)
	setIf(q, "search", f.Search)
	if f.LookingForMembers {
		q.Set("lookingForMembers", strconv.FormatBool(true))
	}
	return q
}

func setIf(q url.Values, key, val string) {
	if v := strings.TrimSpace(val); v != "" {
		q.Set(key, v)
	}
}

func nonBlank(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
