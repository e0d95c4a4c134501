package httpapi

import (
	"net/http"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/wecare-ems/wecare-api/internal/app/auth"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type profileJSON struct {
	userJSON
	DriverID nullable.Nullable[string] `json:"driverId"`
}

type sessionJSON struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      profileJSON `json:"user"`
}

type messageJSON struct {
	Message string `json:"message"`
}

func profileFrom(u domain.User, driverID *domain.DriverID) profileJSON {
	return profileJSON{userJSON: userFromDomain(u), DriverID: nullableString((*string)(driverID))}
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	sess, err := s.Auth.Login(r.Context(), auth.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: clientIP(r),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionJSON{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt.UTC(),
		User:      profileFrom(sess.User, sess.DriverID),
	})
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.Auth.Register(r.Context(), auth.RegisterInput{
		FullName:  req.FullName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		IPAddress: clientIP(r),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: userFromDomain(u)})
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	prof, err := s.Auth.Me(r.Context(), principal(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: profileFrom(prof.User, prof.DriverID)})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.Auth.Logout(r.Context(), principal(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageJSON{Message: "Logged out"})
}

func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Auth.ChangePassword(r.Context(), principal(r), req.CurrentPassword, req.NewPassword); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageJSON{Message: "Password changed"})
}

func (s *Server) CSRFToken(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": s.System.CSRFToken()})
}
