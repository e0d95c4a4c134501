package rideeventrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/rideeventrepo"
)

const columns = `id, ride_id, type, from_status, to_status, driver_id, actor_id, actor_role, payload, created_at`

// Repo is a database/sql implementation of rideeventrepo.Repository.
// The seq column keeps append order.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Append(ctx context.Context, ev domain.RideEvent) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO ride_events (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(ev.ID),
		string(ev.RideID),
		string(ev.Type),
		sqldb.NullString(ev.FromStatus),
		sqldb.NullString(ev.ToStatus),
		sqldb.NullString(ev.DriverID),
		string(ev.ActorID),
		string(ev.ActorRole),
		sqldb.NullRaw(ev.Payload),
		sqldb.FormatTime(ev.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append ride event: %w", err)
	}
	return nil
}

func (r *Repo) ListByRide(ctx context.Context, id domain.RideID) ([]domain.RideEvent, error) {
	return r.query(ctx, `SELECT `+columns+` FROM ride_events WHERE ride_id = ? ORDER BY seq ASC`, string(id))
}

func (r *Repo) ListRecent(ctx context.Context, f rideeventrepo.Filter) ([]domain.RideEvent, error) {
	if f.RideIDs != nil && len(f.RideIDs) == 0 {
		return []domain.RideEvent{}, nil
	}
	query := `SELECT ` + columns + ` FROM ride_events`
	var args []any
	if f.RideIDs != nil {
		query += ` WHERE ride_id IN (` + sqldb.Placeholders(len(f.RideIDs)) + `)`
		for _, id := range f.RideIDs {
			args = append(args, string(id))
		}
	}
	query, args = sqldb.Paginate(query+` ORDER BY seq DESC`, args, f.Limit, 0)
	return r.query(ctx, query, args...)
}

func (r *Repo) query(ctx context.Context, query string, args ...any) ([]domain.RideEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ride events: %w", err)
	}
	defer rows.Close()

	out := make([]domain.RideEvent, 0)
	for rows.Next() {
		var (
			ev                               domain.RideEvent
			id, rideID, typ, actor, role, at string
			from, to, driver, payload        sql.NullString
		)
		if err := rows.Scan(&id, &rideID, &typ, &from, &to, &driver, &actor, &role, &payload, &at); err != nil {
			return nil, err
		}
		ev.ID = domain.EventID(id)
		ev.RideID = domain.RideID(rideID)
		ev.Type = domain.RideEventType(typ)
		ev.FromStatus = sqldb.StringPtr[domain.RideStatus](from)
		ev.ToStatus = sqldb.StringPtr[domain.RideStatus](to)
		ev.DriverID = sqldb.StringPtr[domain.DriverID](driver)
		ev.ActorID = domain.UserID(actor)
		ev.ActorRole = domain.Role(role)
		ev.Payload = sqldb.RawPtr(payload)
		if ev.CreatedAt, err = sqldb.ParseTime(at); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
