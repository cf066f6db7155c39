package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"hostel-ts/internal/models"
	"hostel-ts/internal/repository"
)

type OverviewService struct {
	issues repository.IssueRepository
}

func NewOverviewService(issues repository.IssueRepository) *OverviewService {
	return &OverviewService{issues: issues}
}

// Overview runs the grouping queries concurrently and folds them into one report.
func (s *OverviewService) Overview(ctx context.Context) (*models.Overview, error) {
	var (
		timings    []repository.IssueTiming
		byCategory map[string]int
		byHostel   map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		timings, err = s.issues.Timings(gctx)
		return err
	})
	g.Go(func() (err error) {
		byCategory, err = s.issues.CountBy(gctx, "category")
		return err
	})
	g.Go(func() (err error) {
		byHostel, err = s.issues.CountBy(gctx, "hostel")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o := BuildOverview(timings)
	o.ByCategory = byCategory
	o.ByHostel = byHostel
	return o, nil
}

// BuildOverview computes counts and average timings. Negative durations, from
// clock skew or bad data, are left out of the averages.
func BuildOverview(ts []repository.IssueTiming) *models.Overview {
	o := &models.Overview{
		Total:      len(ts),
		ByStatus:   map[models.Status]int{},
		ByCategory: map[string]int{},
		ByHostel:   map[string]int{},
	}
	for _, s := range models.Statuses {
		o.ByStatus[s] = 0
	}

	var resolveSum, respondSum time.Duration
	var resolveN, respondN int
	for _, t := range ts {
		o.ByStatus[t.Status]++
		switch {
		case t.Status.Terminal():
			o.Resolved++
		case t.Status.Open():
			o.Pending++
		}
		if t.ResolvedAt != nil {
			if d := t.ResolvedAt.Sub(t.CreatedAt); d >= 0 {
				resolveSum += d
				resolveN++
			}
		}
		if t.RespondedAt != nil {
			if d := t.RespondedAt.Sub(t.CreatedAt); d >= 0 {
				respondSum += d
				respondN++
			}
		}
	}
	if o.Total > 0 {
		o.ResolutionRate = float64(o.Resolved) * 100 / float64(o.Total)
	}
	if resolveN > 0 {
		o.AvgResolutionMinutes = resolveSum.Minutes() / float64(resolveN)
	}
	if respondN > 0 {
		o.AvgResponseMinutes = respondSum.Minutes() / float64(respondN)
	}
	return o
}
