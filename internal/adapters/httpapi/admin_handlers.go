package httpapi

import (
	"net/http"
	"time"

	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/app/system"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type resetDBRequest struct {
	Confirm string `json:"confirm"`
	Reason  string `json:"reason"`
}

type unlockRequest struct {
	Email string `json:"email"`
}

type settingsRequest struct {
	AppName             string     `json:"app_name"`
	OrganizationName    string     `json:"organization_name"`
	OrganizationAddress string     `json:"organization_address"`
	OrganizationPhone   string     `json:"organization_phone"`
	ContactEmail        string     `json:"contact_email"`
	LogoURL             string     `json:"logo_url"`
	MapCenter           *latLngDTO `json:"map_center"`
	MaintenanceMode     bool       `json:"maintenance_mode"`
	MaintenanceMessage  string     `json:"maintenance_message"`
	SchedulingModel     string     `json:"scheduling_model"`
	DeveloperName       string     `json:"developer_name"`
	DeveloperTitle      string     `json:"developer_title"`
}

type resetDBJSON struct {
	Message string             `json:"message"`
	ResetAt time.Time          `json:"resetAt"`
	Seeded  system.ApplyResult `json:"seeded"`
}

type healthJSON struct {
	Status           string    `json:"status"`
	UptimeSeconds    int64     `json:"uptimeSeconds"`
	Storage          string    `json:"storage"`
	Goroutines       int       `json:"goroutines"`
	MemoryAllocBytes uint64    `json:"memoryAllocBytes"`
	Timestamp        time.Time `json:"timestamp"`
}

type lockoutConfigJSON struct {
	MaxAttempts     int `json:"maxAttempts"`
	DurationSeconds int `json:"lockoutDurationSeconds"`
	WindowSeconds   int `json:"attemptWindowSeconds"`
}

type lockoutStatsJSON struct {
	TotalAttempts  int               `json:"totalAttempts"`
	LockedAccounts int               `json:"lockedAccounts"`
	Config         lockoutConfigJSON `json:"config"`
}

type lockedAccountJSON struct {
	Email       string    `json:"email"`
	Attempts    int       `json:"attempts"`
	LockedUntil time.Time `json:"lockedUntil"`
}

func (s *Server) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.Audit.List(r.Context(), audit.Filter{
		Action:    queryString(r, "action"),
		UserEmail: queryString(r, "userEmail"),
		TargetID:  queryString(r, "targetId"),
		Params:    params,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageFrom(page, auditLogFromDomain))
}

func (s *Server) AuditIntegrity(w http.ResponseWriter, r *http.Request) {
	st, err := s.Audit.IntegrityStatus(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: st})
}

func (s *Server) RebuildAuditChain(w http.ResponseWriter, r *http.Request) {
	res, err := s.Audit.RebuildChain(r.Context(), principal(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: res})
}

func (s *Server) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	var req resetDBRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.System.ResetDatabase(r.Context(), principal(r), system.ResetInput(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resetDBJSON{Message: "Database reset", ResetAt: res.ResetAt.UTC(), Seeded: res.Seeded})
}

func (s *Server) SeedUsers(w http.ResponseWriter, r *http.Request) {
	res, err := s.System.SeedUsers(r.Context(), principal(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: res})
}

func (s *Server) SystemLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	logs, err := s.System.Logs(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: listFrom(logs, auditLogFromDomain)})
}

func (s *Server) SystemHealth(w http.ResponseWriter, r *http.Request) {
	h := s.System.Health(r.Context())
	writeJSON(w, http.StatusOK, healthJSON{
		Status:           h.Status,
		UptimeSeconds:    h.UptimeSeconds,
		Storage:          h.Storage,
		Goroutines:       h.Goroutines,
		MemoryAllocBytes: h.MemoryAllocBytes,
		Timestamp:        h.Timestamp.UTC(),
	})
}

func (s *Server) LockoutStats(w http.ResponseWriter, _ *http.Request) {
	st := s.System.LockoutStats()
	writeJSON(w, http.StatusOK, dataResponse{Data: lockoutStatsJSON{
		TotalAttempts:  st.TotalAttempts,
		LockedAccounts: st.LockedAccounts,
		Config: lockoutConfigJSON{
			MaxAttempts:     st.Config.MaxAttempts,
			DurationSeconds: int(st.Config.Duration / time.Second),
			WindowSeconds:   int(st.Config.Window / time.Second),
		},
	}})
}

func (s *Server) LockedAccounts(w http.ResponseWriter, _ *http.Request) {
	out := make([]lockedAccountJSON, 0)
	for _, a := range s.System.LockedAccounts() {
		out = append(out, lockedAccountJSON{Email: a.Email, Attempts: a.Attempts, LockedUntil: a.LockedUntil.UTC()})
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: out})
}

func (s *Server) UnlockAccount(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.System.Unlock(r.Context(), principal(r), req.Email); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageJSON{Message: "Account unlocked"})
}

func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.Settings.Get(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: settingsFromDomain(st)})
}

func (s *Server) PutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	in := domain.Settings{
		AppName:             req.AppName,
		OrganizationName:    req.OrganizationName,
		OrganizationAddress: req.OrganizationAddress,
		OrganizationPhone:   req.OrganizationPhone,
		ContactEmail:        req.ContactEmail,
		LogoURL:             req.LogoURL,
		MaintenanceMode:     req.MaintenanceMode,
		MaintenanceMessage:  req.MaintenanceMessage,
		SchedulingModel:     domain.SchedulingModel(req.SchedulingModel),
		DeveloperName:       req.DeveloperName,
		DeveloperTitle:      req.DeveloperTitle,
	}
	if req.MapCenter != nil {
		in.MapCenterLat, in.MapCenterLng = req.MapCenter.Lat, req.MapCenter.Lng
	}
	st, err := s.Settings.Put(r.Context(), principal(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: settingsFromDomain(st)})
}

func (s *Server) PublicSettings(w http.ResponseWriter, r *http.Request) {
	pub, err := s.Settings.Public(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: map[string]any{
		"appName":            pub.AppName,
		"organizationName":   pub.OrganizationName,
		"logoUrl":            pub.LogoURL,
		"contactEmail":       pub.ContactEmail,
		"maintenanceMode":    pub.MaintenanceMode,
		"maintenanceMessage": pub.MaintenanceMessage,
	}})
}
