package domain

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	ActionLogin             AuditAction = "LOGIN"
	ActionLogout            AuditAction = "LOGOUT"
	ActionLoginFailed       AuditAction = "LOGIN_FAILED"
	ActionRegister          AuditAction = "REGISTER"
	ActionChangePassword    AuditAction = "CHANGE_PASSWORD"
	ActionCreateUser        AuditAction = "CREATE_USER"
	ActionUpdateUser        AuditAction = "UPDATE_USER"
	ActionDeleteUser        AuditAction = "DELETE_USER"
	ActionResetPassword     AuditAction = "RESET_PASSWORD"
	ActionCreatePatient     AuditAction = "CREATE_PATIENT"
	ActionUpdatePatient     AuditAction = "UPDATE_PATIENT"
	ActionDeletePatient     AuditAction = "DELETE_PATIENT"
	ActionCreateRide        AuditAction = "CREATE_RIDE"
	ActionUpdateRide        AuditAction = "UPDATE_RIDE"
	ActionAssignDriver      AuditAction = "ASSIGN_DRIVER"
	ActionCancelRide        AuditAction = "CANCEL_RIDE"
	ActionCompleteRide      AuditAction = "COMPLETE_RIDE"
	ActionDeleteRide        AuditAction = "DELETE_RIDE"
	ActionUpdateSettings    AuditAction = "UPDATE_SETTINGS"
	ActionUnlockAccount     AuditAction = "UNLOCK_ACCOUNT"
	ActionResetDatabase     AuditAction = "RESET_DATABASE"
	ActionSeedUsers         AuditAction = "SEED_USERS"
	ActionRebuildAuditChain AuditAction = "REBUILD_AUDIT_CHAIN"
	ActionCreateFacility    AuditAction = "CREATE_FACILITY"
	ActionUpdateFacility    AuditAction = "UPDATE_FACILITY"
	ActionDeleteFacility    AuditAction = "DELETE_FACILITY"
	ActionCreateMapShape    AuditAction = "CREATE_MAP_SHAPE"
	ActionUpdateMapShape    AuditAction = "UPDATE_MAP_SHAPE"
	ActionDeleteMapShape    AuditAction = "DELETE_MAP_SHAPE"
)

// AuditGenesisHash is the previousHash of the first entry in the chain.
const AuditGenesisHash = "0"

// AuditLog is one entry of the tamper-evident, hash-chained audit trail.
type AuditLog struct {
	ID             string
	SequenceNumber int64
	Timestamp      time.Time
	UserEmail      string
	UserRole       Role
	Action         AuditAction
	TargetID       *string
	IPAddress      string
	DataPayload    json.RawMessage
	PreviousHash   string
	Hash           string
}
