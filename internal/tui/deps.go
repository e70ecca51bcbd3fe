package tui

import (
	"context"
	"net/url"

	"github.com/naveenspark/hackforge/internal/app"
	"github.com/naveenspark/hackforge/internal/session"
	"github.com/naveenspark/hackforge/internal/store"
	"github.com/naveenspark/hackforge/pkg/domain"
)

// judging fetches the judging panel of a hackathon.
type judging interface {
	ListJudges(ctx context.Context, hackathonID string) ([]domain.Judge, error)
	ListEvaluations(ctx context.Context, hackathonID string) ([]domain.Evaluation, error)
}

// deps are the components the views read and drive. Views never hold their
// own copies of server data; they render store snapshots.
type deps struct {
	session    *session.Store
	hackathons *store.Hackathons
	teams      *store.Teams
	projects   *store.Projects
	messages   *store.Messages
	judging    judging
	connected  func() bool
	logout     func(ctx context.Context)
	webURL     string
	pageSize   int
}

func depsFromApp(a *app.App) *deps {
	d := &deps{
		session:    a.Session,
		hackathons: a.Hackathons,
		teams:      a.Teams,
		projects:   a.Projects,
		messages:   a.Messages,
		judging:    a.Client,
		logout:     a.Logout,
		webURL:     a.Config.Web.URL,
		pageSize:   a.Config.UI.PageSize,
	}
	if a.Bridge != nil {
		d.connected = a.Bridge.Connected
	}
	return d
}

func (d *deps) live() bool {
	return d.connected != nil && d.connected()
}

// hackathonURL is the public page of a hackathon on the website.
func (d *deps) hackathonURL(id string) string {
	if d.webURL == "" {
		return ""
	}
	return d.webURL + "/hackathons/" + url.PathEscape(id)
}
