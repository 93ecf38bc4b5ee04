package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	audit "audittrail/pkg/platform/audit"
	"audittrail/pkg/platform/sentinel"
	txcontext "audittrail/pkg/platform/tx"

	"github.com/lib/pq"
)

// Store persists audit events and their change lists. A record and its
// changes are written in one transaction; when the context already carries
// a transaction the write joins it.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const insertEvent = `
		INSERT INTO audit_events (
			occurred_at, site_id, sensor_id, user_id, user_name, user_email,
			object_type, object_id, source_ip, source_client,
			check_value_head, check_value_full, replication_done
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

const insertInfo = `
		INSERT INTO audit_event_infos (event_id, ordinal, info_key, info_value, prior_value)
		VALUES ($1, $2, $3, $4, $5)
	`

// Persist writes record and returns the id assigned by the database.
func (s *Store) Persist(ctx context.Context, record audit.EventRecord) (int64, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.persist(ctx, tx, record)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin audit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := s.persist(ctx, tx, record)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit audit tx: %w", err)
	}
	return id, nil
}

func (s *Store) persist(ctx context.Context, exec dbExecutor, record audit.EventRecord) (int64, error) {
	var id int64
	err := exec.QueryRowContext(ctx, insertEvent,
		record.OccurredAt.UTC(),
		record.SiteScope,
		int(record.SensorID),
		record.Actor.UserID,
		record.Actor.UserName,
		record.Actor.UserEmail,
		string(record.ObjectType),
		record.ObjectID,
		record.SourceIP,
		record.SourceClient,
		record.IntegrityHead,
		record.IntegrityFull,
		record.ReplicationDone,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert audit event: %w", mapError(err))
	}

	for i, c := range record.Changes {
		newValue, err := jsonValue(c.NewValue)
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", c.Key, err)
		}
		priorValue, err := jsonValue(c.PriorValue)
		if err != nil {
			return 0, fmt.Errorf("encode prior %s: %w", c.Key, err)
		}
		if _, err := exec.ExecContext(ctx, insertInfo, id, i, c.Key, newValue, priorValue); err != nil {
			return 0, fmt.Errorf("insert audit info %s: %w", c.Key, mapError(err))
		}
	}
	return id, nil
}

// SetIntegrityFull stores the chain value for id.
func (s *Store) SetIntegrityFull(ctx context.Context, id int64, full string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE audit_events SET check_value_full = $1 WHERE id = $2`, full, id)
	if err != nil {
		return fmt.Errorf("update chain value: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update chain value: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("audit event %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

// LastChained returns the newest chained record's id and chain value, or
// zero values when nothing has been chained yet.
func (s *Store) LastChained(ctx context.Context) (int64, string, error) {
	var (
		id   int64
		full string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, check_value_full FROM audit_events
		WHERE check_value_full <> ''
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&id, &full)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("read last chain value: %w", err)
	}
	return id, full, nil
}

const selectEvents = `
		SELECT id, occurred_at, site_id, sensor_id, user_id, user_name, user_email,
			object_type, object_id, source_ip, source_client,
			check_value_head, check_value_full, replication_done
		FROM audit_events
	`

// Get loads one record with its changes.
func (s *Store) Get(ctx context.Context, id int64) (audit.EventRecord, error) {
	records, err := s.query(ctx, selectEvents+` WHERE id = $1`, id)
	if err != nil {
		return audit.EventRecord{}, err
	}
	if len(records) == 0 {
		return audit.EventRecord{}, fmt.Errorf("audit event %d: %w", id, sentinel.ErrNotFound)
	}
	return records[0], nil
}

// ListSince returns up to limit records with an id greater than afterID,
// in id order.
func (s *Store) ListSince(ctx context.Context, afterID int64, limit int) ([]audit.EventRecord, error) {
	return s.query(ctx, selectEvents+` WHERE id > $1 ORDER BY id LIMIT $2`, afterID, limit)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]audit.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var (
		records []audit.EventRecord
		ids     []int64
		index   = make(map[int64]int)
	)
	for rows.Next() {
		var (
			r        audit.EventRecord
			sensorID int
			objType  string
		)
		if err := rows.Scan(&r.ID, &r.OccurredAt, &r.SiteScope, &sensorID,
			&r.Actor.UserID, &r.Actor.UserName, &r.Actor.UserEmail,
			&objType, &r.ObjectID, &r.SourceIP, &r.SourceClient,
			&r.IntegrityHead, &r.IntegrityFull, &r.ReplicationDone,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		r.OccurredAt = r.OccurredAt.UTC()
		r.SensorID = audit.SensorID(sensorID)
		r.ObjectType = audit.ObjectType(objType)
		r.Changes = []audit.ChangeRecord{}
		index[r.ID] = len(records)
		ids = append(ids, r.ID)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	if len(ids) == 0 {
		return records, nil
	}

	if err := s.attachChanges(ctx, records, index, ids); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) attachChanges(ctx context.Context, records []audit.EventRecord, index map[int64]int, ids []int64) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, info_key, info_value, prior_value
		FROM audit_event_infos
		WHERE event_id = ANY($1)
		ORDER BY event_id, ordinal
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query audit infos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID      int64
			key          string
			value, prior []byte
		)
		if err := rows.Scan(&eventID, &key, &value, &prior); err != nil {
			return fmt.Errorf("scan audit info: %w", err)
		}
		c := audit.ChangeRecord{Key: key}
		if c.NewValue, err = decodeJSON(value); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		if c.PriorValue, err = decodeJSON(prior); err != nil {
			return fmt.Errorf("decode prior %s: %w", key, err)
		}
		i, ok := index[eventID]
		if !ok {
			continue
		}
		records[i].Changes = append(records[i].Changes, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate audit infos: %w", err)
	}
	return nil
}

// jsonValue encodes v for a JSONB column; nil maps to SQL NULL.
func jsonValue(v any) (any, error) {
	if audit.IsNil(v) {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// decodeJSON keeps numbers as json.Number so integers survive unchanged.
func decodeJSON(b []byte) (any, error) {
	if b == nil {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, pqErr.Message)
		case "57P01", "57P02", "57P03", "08000", "08003", "08006":
			return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, pqErr.Message)
		}
	}
	return err
}
