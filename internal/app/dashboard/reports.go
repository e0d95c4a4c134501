package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/riderepo"
)

// DefaultReportDays is the office report range when from/to are omitted.
const DefaultReportDays = 7

type DayCount struct {
	Date      string // YYYY-MM-DD
	Total     int
	Completed int
	Cancelled int
}

type DriverCount struct {
	DriverID   domain.DriverID
	DriverName string
	Rides      int
	Completed  int
}

type OfficeReport struct {
	From      string
	To        string
	Total     int
	PerDay    []DayCount
	PerStatus map[domain.RideStatus]int
	PerDriver []DriverCount
}

// OfficeReport summarises rides with appointments on dates from..to inclusive.
func (s *Service) OfficeReport(ctx context.Context, from, to *time.Time) (OfficeReport, error) {
	end := domain.DateOnly(s.clk.Now())
	if to != nil {
		end = domain.DateOnly(*to)
	}
	start := end.AddDate(0, 0, -(DefaultReportDays - 1))
	if from != nil {
		start = domain.DateOnly(*from)
	}
	if end.Before(start) {
		return OfficeReport{}, apperr.BadRequest("to must not be before from")
	}
	if end.Sub(start) > 366*24*time.Hour {
		return OfficeReport{}, apperr.BadRequest("report range is limited to one year")
	}
	until := end.AddDate(0, 0, 1)
	rs, _, err := s.rides.List(ctx, riderepo.Filter{From: &start, To: &until})
	if err != nil {
		return OfficeReport{}, fmt.Errorf("report rides: %w", err)
	}

	out := OfficeReport{
		From:      start.Format(time.DateOnly),
		To:        end.Format(time.DateOnly),
		Total:     len(rs),
		PerStatus: map[domain.RideStatus]int{},
	}
	days := map[string]int{}
	for d := start; d.Before(until); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		days[key] = len(out.PerDay)
		out.PerDay = append(out.PerDay, DayCount{Date: key})
	}
	drivers := map[domain.DriverID]*DriverCount{}
	for _, r := range rs {
		out.PerStatus[r.Status]++
		if i, ok := days[r.AppointmentTime.UTC().Format(time.DateOnly)]; ok {
			out.PerDay[i].Total++
			switch r.Status {
			case domain.RideStatusCompleted:
				out.PerDay[i].Completed++
			case domain.RideStatusCancelled:
				out.PerDay[i].Cancelled++
			}
		}
		if r.DriverID == nil {
			continue
		}
		dc, ok := drivers[*r.DriverID]
		if !ok {
			dc = &DriverCount{DriverID: *r.DriverID}
			drivers[*r.DriverID] = dc
		}
		if r.DriverName != nil {
			dc.DriverName = *r.DriverName
		}
		dc.Rides++
		if r.Status == domain.RideStatusCompleted {
			dc.Completed++
		}
	}
	out.PerDriver = make([]DriverCount, 0, len(drivers))
	for _, dc := range drivers {
		out.PerDriver = append(out.PerDriver, *dc)
	}
	sort.Slice(out.PerDriver, func(i, j int) bool {
		if out.PerDriver[i].Rides != out.PerDriver[j].Rides {
			return out.PerDriver[i].Rides > out.PerDriver[j].Rides
		}
		return out.PerDriver[i].DriverID < out.PerDriver[j].DriverID
	})
	return out, nil
}

// Export kinds and formats.
const (
	ExportSummary = "summary"
	ExportRides   = "rides"
	ExportDrivers = "drivers"

	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ExportFile is a rendered report ready to be written as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Export renders one report kind as CSV or JSON.
func (s *Service) Export(ctx context.Context, kind, format string) (ExportFile, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatJSON {
		return ExportFile{}, apperr.BadRequest("format must be csv or json")
	}

	var (
		header []string
		rows   [][]string
	)
	switch kind {
	case ExportSummary:
		ex, err := s.Executive(ctx)
		if err != nil {
			return ExportFile{}, err
		}
		header, rows = summaryRows(ex)
	case ExportRides:
		rs, _, err := s.rides.List(ctx, riderepo.Filter{})
		if err != nil {
			return ExportFile{}, fmt.Errorf("export rides: %w", err)
		}
		header, rows = rideRows(rs)
	case ExportDrivers:
		ds, _, err := s.drivers.List(ctx, driverrepo.Filter{})
		if err != nil {
			return ExportFile{}, fmt.Errorf("export drivers: %w", err)
		}
		completed, _, err := s.rides.List(ctx, riderepo.Filter{Statuses: []domain.RideStatus{domain.RideStatusCompleted}})
		if err != nil {
			return ExportFile{}, fmt.Errorf("export drivers: %w", err)
		}
		header, rows = driverRows(ds, completed)
	default:
		return ExportFile{}, apperr.BadRequest("type must be summary, rides or drivers")
	}

	name := fmt.Sprintf("wecare-%s-%s.%s", kind, s.clk.Now().UTC().Format("20060102"), format)
	if format == FormatJSON {
		b, err := json.Marshal(records(header, rows))
		if err != nil {
			return ExportFile{}, fmt.Errorf("encode %s export: %w", kind, err)
		}
		return ExportFile{Filename: name, ContentType: "application/json", Body: b}, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return ExportFile{}, err
	}
	if err := w.WriteAll(rows); err != nil {
		return ExportFile{}, fmt.Errorf("encode %s export: %w", kind, err)
	}
	return ExportFile{Filename: name, ContentType: "text/csv; charset=utf-8", Body: buf.Bytes()}, nil
}

func summaryRows(ex Executive) ([]string, [][]string) {
	rows := [][]string{
		{"totalRides", strconv.Itoa(ex.TotalRides)},
		{"completionRate", formatFloat(ex.CompletionRate)},
		{"cancellationRate", formatFloat(ex.CancellationRate)},
	}
	if ex.AverageRating != nil {
		rows = append(rows, []string{"averageRating", formatFloat(*ex.AverageRating)})
	}
	for _, m := range ex.Monthly {
		rows = append(rows, []string{"rides:" + m.Month, strconv.Itoa(m.Total)})
	}
	return []string{"metric", "value"}, rows
}

func rideRows(rs []domain.Ride) ([]string, [][]string) {
	header := []string{"id", "patientName", "pickupLocation", "destination", "appointmentTime", "status", "driverId", "driverName", "rating"}
	rows := make([][]string, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, []string{
			string(r.ID),
			r.PatientName,
			r.PickupLocation,
			r.Destination,
			r.AppointmentTime.UTC().Format(time.RFC3339),
			string(r.Status),
			deref((*string)(r.DriverID)),
			deref(r.DriverName),
			intOrEmpty(r.Rating),
		})
	}
	return header, rows
}

func driverRows(ds []domain.Driver, completed []domain.Ride) ([]string, [][]string) {
	done := map[domain.DriverID]int{}
	for _, r := range completed {
		if r.DriverID != nil {
			done[*r.DriverID]++
		}
	}
	header := []string{"id", "fullName", "phone", "licensePlate", "status", "completedRides"}
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, []string{
			string(d.ID),
			d.FullName,
			d.Phone,
			deref(d.LicensePlate),
			string(d.Status),
			strconv.Itoa(done[d.ID]),
		})
	}
	return header, rows
}

// records turns CSV rows into objects keyed by the header.
func records(header []string, rows [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		rec := make(map[string]string, len(header))
		for i, h := range header {
			rec[h] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intOrEmpty(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
