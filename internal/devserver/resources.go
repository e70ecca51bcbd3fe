package devserver

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/naveenspark/hackforge/internal/events"
	"github.com/naveenspark/hackforge/pkg/domain"
)

const (
	defaultLimit = 12
	maxLimit     = 100
)

// rules describe one resource type.
type rules[T domain.Entity] struct {
	match    func(item T, q url.Values) bool
	validate func(item T) error
	// stamp assigns the id and server-managed fields of a new item.
	stamp func(item *T, id string, now time.Time)
	// keep copies server-managed fields of old into an update.
	keep func(item *T, old T)
}

// resource is one in-memory REST collection, newest first.
type resource[T domain.Entity] struct {
	s     *Server
	kind  events.Kind
	rules rules[T]

	mu    sync.RWMutex
	items []T
}

func newResource[T domain.Entity](s *Server, kind events.Kind, r rules[T]) *resource[T] {
	return &resource[T]{s: s, kind: kind, rules: r}
}

func (res *resource[T]) mount(r chi.Router, prefix string) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", res.list)
		r.Get("/{id}", res.get)
		r.Group(func(r chi.Router) {
			r.Use(res.s.requireAuth)
			r.Post("/", res.create)
			r.Put("/{id}", res.update)
			r.Delete("/{id}", res.remove)
		})
	})
}

// Add inserts items as if they had been created, keeping ids that are set.
func (res *resource[T]) Add(items ...T) []T {
	now := time.Now().UTC()
	out := make([]T, 0, len(items))
	res.mu.Lock()
	defer res.mu.Unlock()
	for _, it := range items {
		id := it.EntityID()
		if id == "" {
			id = uuid.NewString()
		}
		res.rules.stamp(&it, id, now)
		res.items = append([]T{it}, res.items...)
		out = append(out, it)
	}
	return out
}

func (res *resource[T]) find(id string) (T, int) {
	for i, it := range res.items {
		if it.EntityID() == id {
			return it, i
		}
	}
	var zero T
	return zero, -1
}

// Find returns the item with the given id.
func (res *resource[T]) Find(id string) (T, bool) {
	res.mu.RLock()
	defer res.mu.RUnlock()
	it, i := res.find(id)
	return it, i >= 0
}

func paging(q url.Values) (page, limit int, err error) {
	page, limit = 1, defaultLimit
	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 1 {
			return 0, 0, errors.New("page must be a positive integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 || limit > maxLimit {
			return 0, 0, errors.New("limit must be between 1 and 100")
		}
	}
	return page, limit, nil
}

func (res *resource[T]) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit, err := paging(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res.mu.RLock()
	matched := make([]T, 0, len(res.items))
	for _, it := range res.items {
		if res.rules.match(it, q) {
			matched = append(matched, it)
		}
	}
	res.mu.RUnlock()

	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))
	writeData(w, http.StatusOK, domain.Page[T]{
		Items:    matched[start:end],
		Total:    len(matched),
		Page:     page,
		PageSize: limit,
	})
}

func (res *resource[T]) get(w http.ResponseWriter, r *http.Request) {
	it, ok := res.Find(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeData(w, http.StatusOK, it)
}

func (res *resource[T]) create(w http.ResponseWriter, r *http.Request) {
	var it T
	if !decode(w, r, &it) {
		return
	}
	if err := res.rules.validate(it); err != nil {
		writeValidation(w, err)
		return
	}
	res.rules.stamp(&it, uuid.NewString(), time.Now().UTC())

	res.mu.Lock()
	res.items = append([]T{it}, res.items...)
	res.mu.Unlock()
	writeData(w, http.StatusCreated, it)
}

func (res *resource[T]) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var it T
	if !decode(w, r, &it) {
		return
	}
	if err := res.rules.validate(it); err != nil {
		writeValidation(w, err)
		return
	}

	res.mu.Lock()
	old, i := res.find(id)
	if i < 0 {
		res.mu.Unlock()
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	res.rules.keep(&it, old)
	res.items[i] = it
	res.mu.Unlock()

	res.s.Broadcast(res.kind, it)
	writeData(w, http.StatusOK, it)
}

func (res *resource[T]) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res.mu.Lock()
	_, i := res.find(id)
	if i >= 0 {
		res.items = slices.Delete(res.items, i, i+1)
	}
	res.mu.Unlock()
	if i < 0 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func addField(verr *domain.ValidationError, field, msg string) {
	if verr.Fields == nil {
		verr.Fields = make(map[string]string)
	}
	verr.Fields[field] = msg
}

func required(verr *domain.ValidationError, field, val string) {
	if strings.TrimSpace(val) == "" {
		addField(verr, field, field+" is required")
	}
}

func orNil(verr *domain.ValidationError) error {
	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

var hackathonRules = rules[domain.Hackathon]{
	match: func(h domain.Hackathon, q url.Values) bool {
		if s := q.Get("search"); s != "" && !contains(h.Title, s) && !contains(h.Description, s) {
			return false
		}
		if st := q.Get("status"); st != "" && string(h.Status) != st {
			return false
		}
		if themes := q.Get("themes"); themes != "" {
			return slices.ContainsFunc(strings.Split(themes, ","), func(t string) bool {
				return slices.Contains(h.Themes, strings.TrimSpace(t))
			})
		}
		return true
	},
	validate: func(h domain.Hackathon) error {
		var verr domain.ValidationError
		required(&verr, "title", h.Title)
		if h.Status != "" && !h.Status.Valid() {
			addField(&verr, "status", "unknown status")
		}
		if !h.StartDate.IsZero() && !h.EndDate.IsZero() && h.EndDate.Before(h.StartDate) {
			addField(&verr, "endDate", "end date must be after start date")
		}
		return orNil(&verr)
	},
	stamp: func(h *domain.Hackathon, id string, now time.Time) {
		h.ID = id
		if h.Status == "" {
			h.Status = domain.StatusUpcoming
		}
		h.CreatedAt, h.UpdatedAt = now, now
	},
	keep: func(h *domain.Hackathon, old domain.Hackathon) {
		h.ID = old.ID
		h.OrganizerID = old.OrganizerID
		h.CreatedAt = old.CreatedAt
		h.UpdatedAt = time.Now().UTC()
		if h.Status == "" {
			h.Status = old.Status
		}
	},
}

var projectRules = rules[domain.Project]{
	match: func(p domain.Project, q url.Values) bool {
		if v := q.Get("hackathonId"); v != "" && p.HackathonID != v {
			return false
		}
		if v := q.Get("teamId"); v != "" && p.TeamID != v {
			return false
		}
		if s := q.Get("search"); s != "" && !contains(p.Title, s) && !contains(p.Description, s) {
			return false
		}
		return true
	},
	validate: func(p domain.Project) error {
		var verr domain.ValidationError
		required(&verr, "title", p.Title)
		return orNil(&verr)
	},
	stamp: func(p *domain.Project, id string, now time.Time) {
		p.ID = id
		if p.Status == "" {
			p.Status = "draft"
		}
		p.CreatedAt = now
	},
	keep: func(p *domain.Project, old domain.Project) {
		p.ID = old.ID
		p.CreatedAt = old.CreatedAt
	},
}

var teamRules = rules[domain.Team]{
	match: func(t domain.Team, q url.Values) bool {
		if v := q.Get("hackathonId"); v != "" && t.HackathonID != v {
			return false
		}
		if s := q.Get("search"); s != "" && !contains(t.Name, s) && !contains(t.Description, s) {
			return false
		}
		if q.Get("lookingForMembers") == "true" && !t.LookingForMembers {
			return false
		}
		return true
	},
	validate: func(t domain.Team) error {
		var verr domain.ValidationError
		required(&verr, "name", t.Name)
		if t.MaxSize < 0 {
			addField(&verr, "maxSize", "max size cannot be negative")
		}
		return orNil(&verr)
	},
	stamp: func(t *domain.Team, id string, now time.Time) {
		t.ID = id
		t.CreatedAt = now
	},
	keep: func(t *domain.Team, old domain.Team) {
		t.ID = old.ID
		t.CreatedAt = old.CreatedAt
	},
}

func (s *Server) handleJudges(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.hackathons.Find(id); !ok {
		writeError(w, http.StatusNotFound, "Hackathon not found")
		return
	}
	s.judgesMu.RLock()
	judges := append([]domain.Judge{}, s.judges[id]...)
	s.judgesMu.RUnlock()
	writeData(w, http.StatusOK, judges)
}

func (s *Server) handleEvaluations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.hackathons.Find(id); !ok {
		writeError(w, http.StatusNotFound, "Hackathon not found")
		return
	}
	s.judgesMu.RLock()
	evals := append([]domain.Evaluation{}, s.evaluations[id]...)
	s.judgesMu.RUnlock()
	writeData(w, http.StatusOK, evals)
}

// AddJudge assigns a judge to a hackathon.
func (s *Server) AddJudge(j domain.Judge) domain.Judge {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	s.judgesMu.Lock()
	s.judges[j.HackathonID] = append(s.judges[j.HackathonID], j)
	s.judgesMu.Unlock()
	return j
}

// AddEvaluation records a judge's evaluation.
func (s *Server) AddEvaluation(e domain.Evaluation) domain.Evaluation {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Total == 0 {
		for _, v := range e.Scores {
			e.Total += v
		}
	}
	s.judgesMu.Lock()
	s.evaluations[e.HackathonID] = append(s.evaluations[e.HackathonID], e)
	s.judgesMu.Unlock()
	return e
}

// AddHackathons seeds the hackathon collection.
func (s *Server) AddHackathons(items ...domain.Hackathon) []domain.Hackathon {
	return s.hackathons.Add(items...)
}

// AddProjects seeds the project collection.
func (s *Server) AddProjects(items ...domain.Project) []domain.Project {
	return s.projects.Add(items...)
}

// AddTeams seeds the team collection.
func (s *Server) AddTeams(items ...domain.Team) []domain.Team {
	return s.teams.Add(items...)
}
