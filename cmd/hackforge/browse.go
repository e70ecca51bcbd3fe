package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/naveenspark/hackforge/internal/store"
	"github.com/naveenspark/hackforge/pkg/domain"
)

type paging struct {
	page  int
	limit int
}

func (p *paging) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.page, "page", 1, "page number")
	cmd.Flags().IntVar(&p.limit, "limit", 0, "items per page (default ui.page_size)")
}

func (p paging) size(c *cli) int {
	if p.limit > 0 {
		return p.limit
	}
	return c.cfg.UI.PageSize
}

// listPage renders a store's current page followed by a page footer.
func listPage[T domain.Entity](cmd *cobra.Command, c *cli, coll store.Collection[T], header []string, cols func(T) []string) error {
	out := cmd.OutOrStdout()
	page := domain.Page[T]{Items: coll.Items, Total: coll.Total, Page: coll.Page, PageSize: coll.PageSize}
	if page.Items == nil {
		page.Items = []T{}
	}
	err := render(out, c.output, page, func(tw *tabwriter.Writer) {
		row(tw, header...)
		for _, it := range coll.Items {
			row(tw, cols(it)...)
		}
	})
	if err != nil || c.output != formatTable {
		return err
	}
	pageFooter(out, coll.Page, coll.PageSize, coll.Total)
	return nil
}

func dates(h domain.Hackathon) string {
	if h.StartDate.IsZero() {
		return "tbd"
	}
	return h.StartDate.Format("2006-01-02") + " → " + h.EndDate.Format("2006-01-02")
}

func newHackathonsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hackathons",
		Aliases: []string{"h"},
		Short:   "Browse hackathons",
	}

	var (
		f     store.HackathonFilter
		p     paging
		state string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List hackathons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.Status = domain.HackathonStatus(state)
			s := c.app.Hackathons
			if err := s.List(cmd.Context(), f, p.page, p.size(c)); err != nil {
				return fmt.Errorf("list hackathons: %s", describe(err))
			}
			return listPage(cmd, c, s.Snapshot(), []string{"ID", "TITLE", "STATUS", "DATES", "THEMES"}, func(h domain.Hackathon) []string {
				return []string{h.ID, h.Title, string(h.Status), dates(h), strings.Join(h.Themes, ",")}
			})
		},
	}
	list.Flags().StringVar(&f.Search, "search", "", "match title or description")
	list.Flags().StringVar(&state, "status", "", "upcoming, ongoing, ended or draft")
	list.Flags().StringSliceVar(&f.Themes, "theme", nil, "match any of these themes (repeatable)")
	p.bind(list)

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one hackathon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.app.Hackathons.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get hackathon: %s", describe(err))
			}
			return render(cmd.OutOrStdout(), c.output, h, func(tw *tabwriter.Writer) {
				row(tw, "TITLE", h.Title)
				row(tw, "STATUS", string(h.Status))
				row(tw, "DATES", dates(h))
				if h.RegistrationDeadline != nil {
					row(tw, "REGISTER BY", h.RegistrationDeadline.Format("2006-01-02"))
				}
				row(tw, "MODE", h.Mode)
				row(tw, "LOCATION", h.Location)
				row(tw, "THEMES", strings.Join(h.Themes, ", "))
				row(tw, "PARTICIPANTS", strconv.Itoa(h.ParticipantCount))
				for _, prize := range h.Prizes {
					row(tw, "PRIZE", strings.TrimSpace(prize.Title+" "+prize.Amount))
				}
				if link := webLink(c, h.ID); link != "" {
					row(tw, "URL", link)
				}
			})
		},
	}

	judges := &cobra.Command{
		Use:   "judges <id>",
		Short: "List the judges of a hackathon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			js, err := c.app.Client.ListJudges(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list judges: %s", describe(err))
			}
			return render(cmd.OutOrStdout(), c.output, js, func(tw *tabwriter.Writer) {
				row(tw, "ID", "NAME", "EXPERTISE")
				for _, j := range js {
					row(tw, j.ID, j.Name, j.Expertise)
				}
			})
		},
	}

	evals := &cobra.Command{
		Use:   "evaluations <id>",
		Short: "List the evaluations of a hackathon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			es, err := c.app.Client.ListEvaluations(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list evaluations: %s", describe(err))
			}
			return render(cmd.OutOrStdout(), c.output, es, func(tw *tabwriter.Writer) {
				row(tw, "PROJECT", "JUDGE", "TOTAL", "FEEDBACK")
				for _, e := range es {
					row(tw, e.ProjectID, e.JudgeID, strconv.Itoa(e.Total), e.Feedback)
				}
			})
		},
	}

	cmd.AddCommand(list, show, judges, evals)
	return cmd
}

func webLink(c *cli, id string) string {
	if c.cfg.Web.URL == "" {
		return ""
	}
	return strings.TrimRight(c.cfg.Web.URL, "/") + "/hackathons/" + id
}

func newTeamsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "teams",
		Aliases: []string{"t"},
		Short:   "Browse teams",
	}
	var (
		f store.TeamFilter
		p paging
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := c.app.Teams
			if err := s.List(cmd.Context(), f, p.page, p.size(c)); err != nil {
				return fmt.Errorf("list teams: %s", describe(err))
			}
			return listPage(cmd, c, s.Snapshot(), []string{"ID", "NAME", "MEMBERS", "RECRUITING"}, func(t domain.Team) []string {
				seats := strconv.Itoa(len(t.Members))
				if t.MaxSize > 0 {
					seats += "/" + strconv.Itoa(t.MaxSize)
				}
				return []string{t.ID, t.Name, seats, strconv.FormatBool(t.LookingForMembers)}
			})
		},
	}
	list.Flags().StringVar(&f.HackathonID, "hackathon", "", "only teams in this hackathon")
	list.Flags().StringVar(&f.Search, "search", "", "match team name")
	list.Flags().BoolVar(&f.LookingForMembers, "looking", false, "only teams looking for members")
	p.bind(list)
	cmd.AddCommand(list)
	return cmd
}

func newProjectsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"p"},
		Short:   "Browse projects",
	}
	var (
		f store.ProjectFilter
		p paging
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := c.app.Projects
			if err := s.List(cmd.Context(), f, p.page, p.size(c)); err != nil {
				return fmt.Errorf("list projects: %s", describe(err))
			}
			return listPage(cmd, c, s.Snapshot(), []string{"ID", "TITLE", "STATUS", "TECHNOLOGIES"}, func(pr domain.Project) []string {
				return []string{pr.ID, pr.Title, pr.Status, strings.Join(pr.Technologies, ",")}
			})
		},
	}
	list.Flags().StringVar(&f.HackathonID, "hackathon", "", "only projects in this hackathon")
	list.Flags().StringVar(&f.TeamID, "team", "", "only projects of this team")
	list.Flags().StringVar(&f.Search, "search", "", "match project title")
	p.bind(list)
	cmd.AddCommand(list)
	return cmd
}
