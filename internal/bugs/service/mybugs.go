package service

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bugboard/bugboard/internal/bugs/domain"
	"github.com/bugboard/bugboard/internal/logging"
	projectdomain "github.com/bugboard/bugboard/internal/projects/domain"
)

const (
	DefaultFanOut = 8

	// widgetPerProject and widgetTotal size the dashboard's recent bugs.
	widgetPerProject = 3
	widgetTotal      = 5
)

type MyBugsOptions struct {
	// PerProject is sent with every per-project fetch; AssignedTo is
	// always overridden with the user.
	PerProject  domain.Filters
	Limit       int
	Concurrency int
}

type MyBugsResult struct {
	Bugs []domain.Bug
	// Failed lists projects whose fetch failed and contributed nothing.
	Failed []string
}

// MyBugs fetches the bugs assigned to userID across projects. Fetches run
// concurrently and independently; one failing never aborts the others.
// The joined list is ordered newest first.
func (c *Collection) MyBugs(ctx context.Context, userID string, projects []projectdomain.Project, opts MyBugsOptions) MyBugsResult {
	limit := opts.Concurrency
	if limit < 1 {
		limit = DefaultFanOut
	}

	perProject := make([][]domain.Bug, len(projects))
	failed := make([]bool, len(projects))

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range projects {
		i, p := i, projects[i]
		g.Go(func() error {
			f := opts.PerProject
			f.AssignedTo = userID
			res, err := c.api.ListBugs(ctx, p.ID, f)
			if err != nil {
				logging.FromContext(ctx).LogWarnf("my_bugs", "project=%s skipped: %v", p.ID, err)
				failed[i] = true
				return nil
			}
			for _, b := range res.Bugs {
				if b.Project.Name == "" {
					b.Project = domain.ProjectRef{ID: p.ID, Name: p.Name}
				}
				perProject[i] = append(perProject[i], b)
			}
			return nil
		})
	}
	_ = g.Wait()

	out := MyBugsResult{Bugs: []domain.Bug{}}
	for i := range projects {
		out.Bugs = append(out.Bugs, perProject[i]...)
		if failed[i] {
			out.Failed = append(out.Failed, projects[i].ID)
		}
	}
	sort.SliceStable(out.Bugs, func(i, j int) bool {
		return out.Bugs[i].CreatedAt.After(out.Bugs[j].CreatedAt)
	})
	if opts.Limit > 0 && len(out.Bugs) > opts.Limit {
		out.Bugs = out.Bugs[:opts.Limit]
	}
	return out
}

// RecentForUser is the dashboard widget: a few newest bugs per project,
// trimmed to the newest overall.
func (c *Collection) RecentForUser(ctx context.Context, userID string, projects []projectdomain.Project, concurrency int) MyBugsResult {
	return c.MyBugs(ctx, userID, projects, MyBugsOptions{
		PerProject: domain.Filters{
			SortBy:    "createdAt",
			SortOrder: "desc",
		}.WithLimit(widgetPerProject),
		Limit:       widgetTotal,
		Concurrency: concurrency,
	})
}
