package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"grievancedesk/internal/auth"
	"grievancedesk/internal/model"
	"grievancedesk/internal/policy"
	"grievancedesk/internal/repository"
)

// statsDays is the length of the per-day series, today included.
const statsDays = 14

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type DepartmentCount struct {
	Department string `json:"department"`
	Count      int64  `json:"count"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Stats is the admin dashboard payload.
type Stats struct {
	TotalGrievances         int64             `json:"totalGrievances"`
	Submitted               int64             `json:"submitted"`
	InProgress              int64             `json:"inProgress"`
	Resolved                int64             `json:"resolved"`
	GrievancesPerCategory   []CategoryCount   `json:"grievancesPerCategory"`
	GrievancesPerDepartment []DepartmentCount `json:"grievancesPerDepartment"`
	GrievancesPerDay        []DayCount        `json:"grievancesPerDay"`
	// ResolutionRate is the resolved share in percent, rounded to 2 places.
	ResolutionRate float64 `json:"resolutionRate"`
}

// StatsService aggregates grievances for the dashboard.
type StatsService interface {
	Stats(ctx context.Context, actor auth.Identity) (*Stats, error)
}

type statsService struct {
	grievances  repository.GrievanceRepository
	departments repository.DepartmentRepository
	authz       *policy.Authorizer
	now         func() time.Time
}

// NewStatsService creates a new stats service.
func NewStatsService(grievances repository.GrievanceRepository, departments repository.DepartmentRepository, authz *policy.Authorizer) StatsService {
	return &statsService{grievances: grievances, departments: departments, authz: authz, now: time.Now}
}

func (s *statsService) Stats(ctx context.Context, actor auth.Identity) (*Stats, error) {
	if _, err := s.authz.Authorize(ctx, actor.ID, policy.GrievanceStats, nil); err != nil {
		return nil, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(statsDays - 1))

	var (
		total                   int64
		byStatus, byCat, byDept []repository.GroupCount
		stamps                  []time.Time
		depts                   []model.Department
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { total, err = s.grievances.Count(gctx); return })
	g.Go(func() (err error) { byStatus, err = s.grievances.CountByStatus(gctx); return })
	g.Go(func() (err error) { byCat, err = s.grievances.CountByCategory(gctx); return })
	g.Go(func() (err error) { byDept, err = s.grievances.CountByDepartment(gctx); return })
	g.Go(func() (err error) { stamps, err = s.grievances.CreatedSince(gctx, start); return })
	g.Go(func() (err error) { depts, err = s.departments.List(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}

	out := &Stats{
		TotalGrievances:         total,
		GrievancesPerCategory:   make([]CategoryCount, 0, len(byCat)),
		GrievancesPerDepartment: make([]DepartmentCount, 0, len(byDept)),
		GrievancesPerDay:        make([]DayCount, 0, statsDays),
	}
	for _, row := range byStatus {
		switch model.GrievanceStatus(row.Key) {
		case model.StatusSubmitted:
			out.Submitted = row.Count
		case model.StatusInProgress:
			out.InProgress = row.Count
		case model.StatusResolved:
			out.Resolved = row.Count
		}
	}
	for _, row := range byCat {
		out.GrievancesPerCategory = append(out.GrievancesPerCategory, CategoryCount{Category: row.Key, Count: row.Count})
	}

	names := make(map[string]string, len(depts))
	for _, d := range depts {
		names[d.ID] = d.Name
	}
	for _, row := range byDept {
		// grievances pointing at a deleted department are left out
		if name, ok := names[row.Key]; ok {
			out.GrievancesPerDepartment = append(out.GrievancesPerDepartment, DepartmentCount{Department: name, Count: row.Count})
		}
	}

	perDay := make(map[string]int64, statsDays)
	for _, ts := range stamps {
		perDay[ts.UTC().Format(time.DateOnly)]++
	}
	for i := 0; i < statsDays; i++ {
		day := start.AddDate(0, 0, i).Format(time.DateOnly)
		out.GrievancesPerDay = append(out.GrievancesPerDay, DayCount{Date: day, Count: perDay[day]})
	}

	out.ResolutionRate = resolutionRate(out.Resolved, total)
	return out, nil
}

func resolutionRate(resolved, total int64) float64 {
	if total == 0 {
		return 0
	}
	rate := decimal.NewFromInt(resolved).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(total), 2)
	return rate.InexactFloat64()
}
