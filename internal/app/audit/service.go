// Package audit writes and verifies the hash-chained audit log.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/wecare-ems/wecare-api/internal/app/pagination"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
	"github.com/wecare-ems/wecare-api/internal/ports/out/auditrepo"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
)

// timestampLayout is the millisecond UTC form that enters the hash.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Entry is what callers record. Payload is marshaled to JSON.
type Entry struct {
	UserEmail string
	UserRole  domain.Role
	Action    domain.AuditAction
	TargetID  string
	IPAddress string
	Payload   any
}

// FromPrincipal fills the actor fields of an entry.
func FromPrincipal(p domain.Principal, action domain.AuditAction, targetID string, payload any) Entry {
	return Entry{UserEmail: p.Email, UserRole: p.Role, Action: action, TargetID: targetID, Payload: payload}
}

type Filter struct {
	Action    string
	UserEmail string
	TargetID  string
	pagination.Params
}

type IntegrityReport struct {
	Valid        bool     `json:"valid"`
	TotalLogs    int      `json:"totalLogs"`
	VerifiedLogs int      `json:"verifiedLogs"`
	Errors       []string `json:"errors"`
}

type IntegrityStatus struct {
	IntegrityReport
	IntegrityPercentage int       `json:"integrityPercentage"`
	LastVerified        time.Time `json:"lastVerified"`
}

type RebuildResult struct {
	Rebuilt int `json:"rebuilt"`
}

type Service struct {
	repo auditrepo.Repository
	clk  clockport.Clock
	log  logger.Logger

	// mu serializes appends so sequence numbers stay contiguous within the process.
	mu sync.Mutex
}

func NewService(repo auditrepo.Repository, clk clockport.Clock, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{repo: repo, clk: clk, log: log}
}

// Log appends e to the chain.
func (s *Service) Log(ctx context.Context, e Entry) (domain.AuditLog, error) {
	payload, err := marshalPayload(e.Payload)
	if err != nil {
		return domain.AuditLog{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; ; attempt++ {
		prevHash := domain.AuditGenesisHash
		var seq int64 = 1
		last, err := s.repo.Last(ctx)
		switch {
		case err == nil:
			prevHash = last.Hash
			seq = last.SequenceNumber + 1
		case errors.Is(err, auditrepo.ErrNotFound):
		default:
			return domain.AuditLog{}, fmt.Errorf("audit last: %w", err)
		}

		l := domain.AuditLog{
			ID:             strconv.FormatInt(seq, 10),
			SequenceNumber: seq,
			Timestamp:      s.clk.Now().UTC(),
			UserEmail:      e.UserEmail,
			UserRole:       e.UserRole,
			Action:         e.Action,
			IPAddress:      e.IPAddress,
			DataPayload:    payload,
			PreviousHash:   prevHash,
		}
		if e.TargetID != "" {
			l.TargetID = domain.Ptr(e.TargetID)
		}
		l.Hash, err = Hash(l)
		if err != nil {
			return domain.AuditLog{}, err
		}

		err = s.repo.Append(ctx, l)
		if err == nil {
			return l, nil
		}
		if errors.Is(err, auditrepo.ErrAlreadyExists) && attempt == 0 {
			continue
		}
		return domain.AuditLog{}, fmt.Errorf("audit append: %w", err)
	}
}

// Record logs e and reports a failure without failing the caller's operation.
func (s *Service) Record(ctx context.Context, e Entry) {
	if _, err := s.Log(ctx, e); err != nil {
		s.log.Error("audit log write failed", logger.String("action", string(e.Action)), logger.Error(err))
	}
}

func (s *Service) List(ctx context.Context, f Filter) (pagination.Page[domain.AuditLog], error) {
	rf := auditrepo.Filter{
		UserEmail: f.UserEmail,
		TargetID:  f.TargetID,
		Limit:     f.Normalize().Limit,
		Offset:    f.Offset(),
	}
	if f.Action != "" {
		a := domain.AuditAction(f.Action)
		rf.Action = &a
	}
	logs, total, err := s.repo.List(ctx, rf)
	if err != nil {
		return pagination.Page[domain.AuditLog]{}, fmt.Errorf("list audit logs: %w", err)
	}
	return pagination.New(logs, f.Params, total), nil
}

// Recent returns up to limit entries, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	logs, _, err := s.repo.List(ctx, auditrepo.Filter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("recent audit logs: %w", err)
	}
	return logs, nil
}

// VerifyIntegrity walks the chain checking sequence, linkage and hashes.
func (s *Service) VerifyIntegrity(ctx context.Context) (IntegrityReport, error) {
	logs, err := s.repo.All(ctx)
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("load audit chain: %w", err)
	}
	rep := IntegrityReport{TotalLogs: len(logs), Errors: []string{}}
	for i, l := range logs {
		expectedSeq := int64(i + 1)
		if l.SequenceNumber != expectedSeq {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Log %s: Invalid sequence number (expected %d, got %d)", l.ID, expectedSeq, l.SequenceNumber))
			continue
		}
		expectedPrev := domain.AuditGenesisHash
		if i > 0 {
			expectedPrev = logs[i-1].Hash
		}
		if l.PreviousHash != expectedPrev {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Log %s: Invalid previous hash (chain broken)", l.ID))
			continue
		}
		h, err := Hash(l)
		if err != nil || h != l.Hash {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Log %s: Hash mismatch (log has been tampered with)", l.ID))
			continue
		}
		rep.VerifiedLogs++
	}
	rep.Valid = len(rep.Errors) == 0
	if !rep.Valid {
		s.log.Warning("audit chain verification failed",
			logger.Int("totalLogs", rep.TotalLogs),
			logger.Int("verifiedLogs", rep.VerifiedLogs))
	}
	return rep, nil
}

func (s *Service) IntegrityStatus(ctx context.Context) (IntegrityStatus, error) {
	rep, err := s.VerifyIntegrity(ctx)
	if err != nil {
		return IntegrityStatus{}, err
	}
	pct := 100
	if rep.TotalLogs > 0 {
		pct = int(math.Round(float64(rep.VerifiedLogs) / float64(rep.TotalLogs) * 100))
	}
	return IntegrityStatus{IntegrityReport: rep, IntegrityPercentage: pct, LastVerified: s.clk.Now().UTC()}, nil
}

// RebuildChain renumbers and rehashes every entry in timestamp order, then records the rebuild.
func (s *Service) RebuildChain(ctx context.Context, actor domain.Principal) (RebuildResult, error) {
	s.mu.Lock()
	logs, err := s.repo.All(ctx)
	if err != nil {
		s.mu.Unlock()
		return RebuildResult{}, fmt.Errorf("load audit chain: %w", err)
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Timestamp.Before(logs[j].Timestamp) })

	prev := domain.AuditGenesisHash
	for i := range logs {
		seq := int64(i + 1)
		logs[i].SequenceNumber = seq
		logs[i].ID = strconv.FormatInt(seq, 10)
		logs[i].PreviousHash = prev
		h, err := Hash(logs[i])
		if err != nil {
			s.mu.Unlock()
			return RebuildResult{}, err
		}
		logs[i].Hash = h
		prev = h
	}
	if err := s.repo.ReplaceAll(ctx, logs); err != nil {
		s.mu.Unlock()
		return RebuildResult{}, fmt.Errorf("replace audit chain: %w", err)
	}
	s.mu.Unlock()

	s.log.Warning("audit chain rebuilt", logger.Int("rebuilt", len(logs)), logger.String("by", actor.Email))
	if _, err := s.Log(ctx, FromPrincipal(actor, domain.ActionRebuildAuditChain, "", map[string]any{"rebuilt": len(logs)})); err != nil {
		return RebuildResult{}, err
	}
	return RebuildResult{Rebuilt: len(logs)}, nil
}

type hashInput struct {
	ID             string          `json:"id"`
	Timestamp      string          `json:"timestamp"`
	UserEmail      string          `json:"userEmail"`
	UserRole       domain.Role     `json:"userRole"`
	Action         string          `json:"action"`
	TargetID       *string         `json:"targetId"`
	DataPayload    json.RawMessage `json:"dataPayload"`
	PreviousHash   string          `json:"previousHash"`
	SequenceNumber int64           `json:"sequenceNumber"`
}

// Hash is the SHA-256 hex digest of the canonical JSON of l (excluding l.Hash).
func Hash(l domain.AuditLog) (string, error) {
	in := hashInput{
		ID:             l.ID,
		Timestamp:      l.Timestamp.UTC().Format(timestampLayout),
		UserEmail:      l.UserEmail,
		UserRole:       l.UserRole,
		Action:         string(l.Action),
		TargetID:       l.TargetID,
		DataPayload:    l.DataPayload,
		PreviousHash:   l.PreviousHash,
		SequenceNumber: l.SequenceNumber,
	}
	if len(in.DataPayload) == 0 {
		in.DataPayload = json.RawMessage("null")
	}
	b, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("audit hash: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func marshalPayload(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("audit payload: %w", err)
	}
	return b, nil
}
