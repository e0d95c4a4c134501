// Package dashboard computes the operational and executive views over rides, drivers and patients.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wecare-ems/wecare-api/internal/domain"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/locationrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/patientrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/riderepo"
)

// TopDriversLimit caps the executive leaderboard.
const TopDriversLimit = 5

type Deps struct {
	Rides     riderepo.Repository
	Drivers   driverrepo.Repository
	Patients  patientrepo.Repository
	Locations locationrepo.Repository
	Clock     clockport.Clock
}

type Service struct {
	rides     riderepo.Repository
	drivers   driverrepo.Repository
	patients  patientrepo.Repository
	locations locationrepo.Repository
	clk       clockport.Clock
}

func NewService(d Deps) *Service {
	return &Service{
		rides:     d.Rides,
		drivers:   d.Drivers,
		patients:  d.Patients,
		locations: d.Locations,
		clk:       d.Clock,
	}
}

type Summary struct {
	RidesByStatus map[domain.RideStatus]int
	TotalRides    int
	TodayRides    int
	PendingRides  int
	ActiveDrivers int
	TotalPatients int
}

// Summary is the operational dashboard. Every count is an independent query.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	statuses := allStatuses()
	counts := make([]int, len(statuses))
	var today, available, onTrip, patients int

	g, gctx := errgroup.WithContext(ctx)
	for i, st := range statuses {
		g.Go(func() error {
			n, err := s.countRides(gctx, riderepo.Filter{Statuses: []domain.RideStatus{st}})
			counts[i] = n
			return err
		})
	}
	g.Go(func() error {
		from := domain.DateOnly(s.clk.Now())
		to := from.AddDate(0, 0, 1)
		n, err := s.countRides(gctx, riderepo.Filter{From: &from, To: &to})
		today = n
		return err
	})
	g.Go(func() error {
		n, err := s.countDrivers(gctx, domain.DriverStatusAvailable)
		available = n
		return err
	})
	g.Go(func() error {
		n, err := s.countDrivers(gctx, domain.DriverStatusOnTrip)
		onTrip = n
		return err
	})
	g.Go(func() error {
		_, n, err := s.patients.List(gctx, patientrepo.Filter{Limit: 1})
		if err != nil {
			return fmt.Errorf("count patients: %w", err)
		}
		patients = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	out := Summary{
		RidesByStatus: make(map[domain.RideStatus]int, len(statuses)),
		TodayRides:    today,
		ActiveDrivers: available + onTrip,
		TotalPatients: patients,
	}
	for i, st := range statuses {
		out.RidesByStatus[st] = counts[i]
		out.TotalRides += counts[i]
	}
	out.PendingRides = out.RidesByStatus[domain.RideStatusPending]
	return out, nil
}

type MonthTotal struct {
	Month     string // YYYY-MM
	Total     int
	Completed int
	Cancelled int
}

type DriverStat struct {
	DriverID      domain.DriverID
	DriverName    string
	Completed     int
	AverageRating *float64
}

type Executive struct {
	Monthly          []MonthTotal
	TotalRides       int
	CompletionRate   float64
	CancellationRate float64
	AverageRating    *float64
	PatientsByType   map[string]int
	TopDrivers       []DriverStat
}

// Executive aggregates the last 12 months, ratings, patient mix and the driver leaderboard.
func (s *Service) Executive(ctx context.Context) (Executive, error) {
	var (
		out       Executive
		completed []domain.Ride
		total     int
		cancelled int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.monthly(gctx, s.clk.Now(), 12)
		out.Monthly = m
		return err
	})
	g.Go(func() error {
		n, err := s.countRides(gctx, riderepo.Filter{})
		total = n
		return err
	})
	g.Go(func() error {
		n, err := s.countRides(gctx, riderepo.Filter{Statuses: []domain.RideStatus{domain.RideStatusCancelled}})
		cancelled = n
		return err
	})
	g.Go(func() error {
		rs, _, err := s.rides.List(gctx, riderepo.Filter{Statuses: []domain.RideStatus{domain.RideStatusCompleted}})
		if err != nil {
			return fmt.Errorf("completed rides: %w", err)
		}
		completed = rs
		return nil
	})
	g.Go(func() error {
		m, err := s.patientsByType(gctx)
		out.PatientsByType = m
		return err
	})
	if err := g.Wait(); err != nil {
		return Executive{}, err
	}

	out.TotalRides = total
	out.CompletionRate = percent(len(completed), total)
	out.CancellationRate = percent(cancelled, total)
	out.AverageRating = averageRating(completed)
	out.TopDrivers = topDrivers(completed, TopDriversLimit)
	return out, nil
}

// MapData is the dispatcher map: active rides and the latest driver positions.
type MapData struct {
	ActiveRides []domain.Ride
	Locations   []domain.DriverLocation
}

func (s *Service) MapData(ctx context.Context) (MapData, error) {
	var out MapData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		active := make([]domain.RideStatus, 0, len(allStatuses()))
		for _, st := range allStatuses() {
			if st.IsActive() {
				active = append(active, st)
			}
		}
		rs, _, err := s.rides.List(gctx, riderepo.Filter{Statuses: active})
		if err != nil {
			return fmt.Errorf("active rides: %w", err)
		}
		out.ActiveRides = rs
		return nil
	})
	g.Go(func() error {
		ls, err := s.locations.List(gctx)
		if err != nil {
			return fmt.Errorf("driver locations: %w", err)
		}
		out.Locations = ls
		return nil
	})
	if err := g.Wait(); err != nil {
		return MapData{}, err
	}
	return out, nil
}

func (s *Service) monthly(ctx context.Context, now time.Time, months int) ([]MonthTotal, error) {
	y, m, _ := now.UTC().Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	end := start.AddDate(0, months, 0)
	rs, _, err := s.rides.List(ctx, riderepo.Filter{From: &start, To: &end})
	if err != nil {
		return nil, fmt.Errorf("monthly rides: %w", err)
	}

	out := make([]MonthTotal, months)
	for i := range out {
		out[i].Month = start.AddDate(0, i, 0).Format("2006-01")
	}
	for _, r := range rs {
		ry, rm, _ := r.AppointmentTime.UTC().Date()
		idx := (ry-start.Year())*12 + int(rm) - int(start.Month())
		if idx < 0 || idx >= months {
			continue
		}
		out[idx].Total++
		switch r.Status {
		case domain.RideStatusCompleted:
			out[idx].Completed++
		case domain.RideStatusCancelled:
			out[idx].Cancelled++
		}
	}
	return out, nil
}

func (s *Service) patientsByType(ctx context.Context) (map[string]int, error) {
	ps, _, err := s.patients.List(ctx, patientrepo.Filter{})
	if err != nil {
		return nil, fmt.Errorf("patients by type: %w", err)
	}
	out := map[string]int{}
	for _, p := range ps {
		for _, t := range p.PatientTypes {
			out[t]++
		}
	}
	return out, nil
}

func (s *Service) countRides(ctx context.Context, f riderepo.Filter) (int, error) {
	f.Limit = 1
	_, n, err := s.rides.List(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("count rides: %w", err)
	}
	return n, nil
}

func (s *Service) countDrivers(ctx context.Context, st domain.DriverStatus) (int, error) {
	_, n, err := s.drivers.List(ctx, driverrepo.Filter{Status: &st, Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("count drivers: %w", err)
	}
	return n, nil
}

func allStatuses() []domain.RideStatus {
	return []domain.RideStatus{
		domain.RideStatusPending,
		domain.RideStatusAssigned,
		domain.RideStatusEnRouteToPickup,
		domain.RideStatusArrivedAtPickup,
		domain.RideStatusInProgress,
		domain.RideStatusCompleted,
		domain.RideStatusCancelled,
	}
}

// percent is part/total*100 rounded to one decimal; zero when total is zero.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) * 100 / float64(total))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func averageRating(rs []domain.Ride) *float64 {
	sum, n := 0, 0
	for _, r := range rs {
		if r.Rating != nil {
			sum += *r.Rating
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := round1(float64(sum) / float64(n))
	return &avg
}

// topDrivers ranks drivers by completed rides, then by name.
func topDrivers(completed []domain.Ride, limit int) []DriverStat {
	type acc struct {
		stat             DriverStat
		ratingSum, rated int
	}
	byID := map[domain.DriverID]*acc{}
	for _, r := range completed {
		if r.DriverID == nil {
			continue
		}
		a, ok := byID[*r.DriverID]
		if !ok {
			a = &acc{stat: DriverStat{DriverID: *r.DriverID}}
			byID[*r.DriverID] = a
		}
		if r.DriverName != nil {
			a.stat.DriverName = *r.DriverName
		}
		a.stat.Completed++
		if r.Rating != nil {
			a.ratingSum += *r.Rating
			a.rated++
		}
	}
	out := make([]DriverStat, 0, len(byID))
	for _, a := range byID {
		if a.rated > 0 {
			avg := round1(float64(a.ratingSum) / float64(a.rated))
			a.stat.AverageRating = &avg
		}
		out = append(out, a.stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Completed != out[j].Completed {
			return out[i].Completed > out[j].Completed
		}
		if out[i].DriverName != out[j].DriverName {
			return out[i].DriverName < out[j].DriverName
		}
		return out[i].DriverID < out[j].DriverID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
