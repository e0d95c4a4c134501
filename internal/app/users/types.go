package users

import (
	"github.com/wecare-ems/wecare-api/internal/app/pagination"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
)

type ListInput struct {
	Role  string
	Query string
	pagination.Params
}

type CreateInput struct {
	Email    string
	FullName string
	Phone    string
	Role     string
	Password string
	// Status defaults to Active.
	Status string
}

type UpdateInput struct {
	FullName patch.Optional[string]
	Email    patch.Optional[string]
	Phone    patch.Optional[string]
	Role     patch.Optional[string]
	Status   patch.Optional[string]

	ProfileImageURL patch.Optional[string]
}

// ResetResult carries a generated password. It is empty when the caller supplied one.
type ResetResult struct {
	TemporaryPassword string
}
