package httpapi

import (
	"net/http"

	"github.com/oapi-codegen/nullable"

	"github.com/wecare-ems/wecare-api/internal/app/users"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type createUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password"`
	Status   string `json:"status"`
}

type updateUserRequest struct {
	FullName        nullable.Nullable[string] `json:"full_name"`
	Email           nullable.Nullable[string] `json:"email"`
	Phone           nullable.Nullable[string] `json:"phone"`
	Role            nullable.Nullable[string] `json:"role"`
	Status          nullable.Nullable[string] `json:"status"`
	ProfileImageURL nullable.Nullable[string] `json:"profile_image_url"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

type resetPasswordJSON struct {
	Message           string                    `json:"message"`
	TemporaryPassword nullable.Nullable[string] `json:"temporaryPassword"`
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.Users.List(r.Context(), users.ListInput{
		Role:   queryString(r, "role"),
		Query:  queryString(r, "q"),
		Params: params,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageFrom(page, userFromDomain))
}

func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.Users.Get(r.Context(), domain.UserID(pathID(r, "id")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: userFromDomain(u)})
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.Users.Create(r.Context(), principal(r), users.CreateInput(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: userFromDomain(u)})
}

func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.Users.Update(r.Context(), principal(r), domain.UserID(pathID(r, "id")), users.UpdateInput{
		FullName:        optional(req.FullName),
		Email:           optional(req.Email),
		Phone:           optional(req.Phone),
		Role:            optional(req.Role),
		Status:          optional(req.Status),
		ProfileImageURL: optional(req.ProfileImageURL),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: userFromDomain(u)})
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.Users.Delete(r.Context(), principal(r), domain.UserID(pathID(r, "id"))); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.Users.ResetPassword(r.Context(), principal(r), domain.UserID(pathID(r, "id")), req.NewPassword)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := resetPasswordJSON{Message: "Password reset", TemporaryPassword: nullable.NewNullNullable[string]()}
	if res.TemporaryPassword != "" {
		out.TemporaryPassword = nullable.NewNullableWithValue(res.TemporaryPassword)
	}
	writeJSON(w, http.StatusOK, out)
}
