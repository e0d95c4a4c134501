package httpapi

import (
	"fmt"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/wecare-ems/wecare-api/internal/app/dashboard"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type summaryJSON struct {
	RidesByStatus map[string]int `json:"ridesByStatus"`
	TotalRides    int            `json:"totalRides"`
	TodayRides    int            `json:"todayRides"`
	PendingRides  int            `json:"pendingRides"`
	ActiveDrivers int            `json:"activeDrivers"`
	TotalPatients int            `json:"totalPatients"`
}

type monthTotalJSON struct {
	Month     string `json:"month"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Cancelled int    `json:"cancelled"`
}

type driverStatJSON struct {
	DriverID      string   `json:"driverId"`
	DriverName    string   `json:"driverName"`
	Completed     int      `json:"completedRides"`
	AverageRating *float64 `json:"averageRating"`
}

type executiveJSON struct {
	Monthly          []monthTotalJSON `json:"monthly"`
	TotalRides       int              `json:"totalRides"`
	CompletionRate   float64          `json:"completionRate"`
	CancellationRate float64          `json:"cancellationRate"`
	AverageRating    *float64         `json:"averageRating"`
	PatientsByType   map[string]int   `json:"patientsByType"`
	TopDrivers       []driverStatJSON `json:"topDrivers"`
}

type mapDataJSON struct {
	ActiveRides []rideJSON     `json:"activeRides"`
	Locations   []locationJSON `json:"driverLocations"`
}

type dayCountJSON struct {
	Date      string `json:"date"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Cancelled int    `json:"cancelled"`
}

type driverCountJSON struct {
	DriverID   string `json:"driverId"`
	DriverName string `json:"driverName"`
	Rides      int    `json:"rides"`
	Completed  int    `json:"completed"`
}

type officeReportJSON struct {
	From      string            `json:"from"`
	To        string            `json:"to"`
	Total     int               `json:"total"`
	PerDay    []dayCountJSON    `json:"perDay"`
	PerStatus map[string]int    `json:"perStatus"`
	PerDriver []driverCountJSON `json:"perDriver"`
}

func statusCounts(in map[domain.RideStatus]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

func executiveFrom(ex dashboard.Executive) executiveJSON {
	out := executiveJSON{
		Monthly:          make([]monthTotalJSON, 0, len(ex.Monthly)),
		TotalRides:       ex.TotalRides,
		CompletionRate:   ex.CompletionRate,
		CancellationRate: ex.CancellationRate,
		AverageRating:    ex.AverageRating,
		PatientsByType:   ex.PatientsByType,
		TopDrivers:       make([]driverStatJSON, 0, len(ex.TopDrivers)),
	}
	if out.PatientsByType == nil {
		out.PatientsByType = map[string]int{}
	}
	for _, m := range ex.Monthly {
		out.Monthly = append(out.Monthly, monthTotalJSON(m))
	}
	for _, d := range ex.TopDrivers {
		out.TopDrivers = append(out.TopDrivers, driverStatJSON{
			DriverID:      string(d.DriverID),
			DriverName:    d.DriverName,
			Completed:     d.Completed,
			AverageRating: d.AverageRating,
		})
	}
	return out
}

func (s *Server) GetDashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Dashboard.Summary(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: summaryJSON{
		RidesByStatus: statusCounts(sum.RidesByStatus),
		TotalRides:    sum.TotalRides,
		TodayRides:    sum.TodayRides,
		PendingRides:  sum.PendingRides,
		ActiveDrivers: sum.ActiveDrivers,
		TotalPatients: sum.TotalPatients,
	}})
}

// ExecutiveDashboard serves both /api/dashboard/executive and /api/executive/reports.
func (s *Server) ExecutiveDashboard(w http.ResponseWriter, r *http.Request) {
	ex, err := s.Dashboard.Executive(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: executiveFrom(ex)})
}

// LiveMap is the dispatcher view: rides under way and the latest driver positions.
func (s *Server) LiveMap(w http.ResponseWriter, r *http.Request) {
	md, err := s.Dashboard.MapData(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: mapDataJSON{
		ActiveRides: listFrom(md.ActiveRides, rideFromDomain),
		Locations:   listFrom(md.Locations, locationFromDomain),
	}})
}

func (s *Server) OfficeReport(w http.ResponseWriter, r *http.Request) {
	var from, to *openapi_types.Date
	if err := bindQuery(r, "from", &from); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := bindQuery(r, "to", &to); err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := s.Dashboard.OfficeReport(r.Context(), datePtr(from), datePtr(to))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := officeReportJSON{
		From:      rep.From,
		To:        rep.To,
		Total:     rep.Total,
		PerDay:    make([]dayCountJSON, 0, len(rep.PerDay)),
		PerStatus: statusCounts(rep.PerStatus),
		PerDriver: make([]driverCountJSON, 0, len(rep.PerDriver)),
	}
	for _, d := range rep.PerDay {
		out.PerDay = append(out.PerDay, dayCountJSON(d))
	}
	for _, d := range rep.PerDriver {
		out.PerDriver = append(out.PerDriver, driverCountJSON{
			DriverID:   string(d.DriverID),
			DriverName: d.DriverName,
			Rides:      d.Rides,
			Completed:  d.Completed,
		})
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: out})
}

func (s *Server) ExportReport(w http.ResponseWriter, r *http.Request) {
	f, err := s.Dashboard.Export(r.Context(), queryString(r, "type"), queryString(r, "format"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Body)
}
