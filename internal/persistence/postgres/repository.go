// Package postgres provides pgx-backed persistence for logs, payouts, and outbox events.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/credits/internal/domain"
	"example.com/credits/internal/events"
	"example.com/credits/internal/observability"
)

// Repository provides Postgres-backed persistence for activity logs and payouts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const logColumns = `log_id, owner_id, activity_type, activity_date, quantity, unit, notes, created_at`

// Append persists the log and records its outbox event inside a single transaction.
func (r *Repository) Append(ctx context.Context, log domain.ActivityLog) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertLog = `INSERT INTO activity_logs (log_id, owner_id, activity_type, activity_date, quantity, unit, notes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, insertLog,
		log.ID,
		log.OwnerID,
		log.Type,
		log.Date,
		log.Quantity,
		log.Unit,
		log.Notes,
		log.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, log.OwnerID, "activity_log", log.ID, "credit.log_recorded", events.LogRecorded{
		LogID:        log.ID,
		OwnerID:      log.OwnerID,
		ActivityType: log.Type,
		Date:         log.Date,
		Quantity:     log.Quantity,
		Unit:         log.Unit,
		RecordedAt:   log.CreatedAt,
	}); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return err
	}
	observability.RecordLogPersisted(log.CreatedAt)
	return nil
}

// ListByOwner returns a page of the owner's logs ordered by date, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string, cursor *domain.Cursor, limit int) ([]domain.ActivityLog, *domain.Cursor, error) {
	args := []interface{}{ownerID, limit}
	query := `SELECT ` + logColumns + ` FROM activity_logs WHERE owner_id=$1`

	if cursor != nil {
		query += ` AND (activity_date, log_id) < ($3, $4)`
		args = append(args, cursor.Date, cursor.ID)
	}

	query += ` ORDER BY activity_date DESC, log_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.ActivityLog, 0, limit)
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, log)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{Date: last.Date, ID: last.ID}
	}

	return results, nextCursor, nil
}

// AllByOwner returns the owner's complete log history.
func (r *Repository) AllByOwner(ctx context.Context, ownerID string) ([]domain.ActivityLog, error) {
	query := `SELECT ` + logColumns + ` FROM activity_logs WHERE owner_id=$1 ORDER BY activity_date DESC, log_id DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.ActivityLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, log)
	}
	return results, rows.Err()
}

// Delete removes a log. An empty ownerID skips the ownership filter.
func (r *Repository) Delete(ctx context.Context, logID, ownerID string) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if ownerID == "" {
		tag, err = r.pool.Exec(ctx, `DELETE FROM activity_logs WHERE log_id=$1`, logID)
	} else {
		tag, err = r.pool.Exec(ctx, `DELETE FROM activity_logs WHERE log_id=$1 AND owner_id=$2`, logID, ownerID)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLogNotFound
	}
	return nil
}

func scanLog(rows pgx.Rows) (domain.ActivityLog, error) {
	var log domain.ActivityLog
	err := rows.Scan(&log.ID, &log.OwnerID, &log.Type, &log.Date, &log.Quantity, &log.Unit, &log.Notes, &log.CreatedAt)
	return log, err
}

// anomalyRecord is the JSONB representation of a screening anomaly.
type anomalyRecord struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// Create persists the payout and records its decision event inside a single transaction.
func (r *Repository) Create(ctx context.Context, payout domain.Payout) error {
	anomalies := make([]anomalyRecord, 0, len(payout.Anomalies))
	for _, a := range payout.Anomalies {
		anomalies = append(anomalies, anomalyRecord(a))
	}
	anomaliesJSON, err := json.Marshal(anomalies)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertPayout = `INSERT INTO payouts (payout_id, owner_id, amount, status, flagged, risk_score, anomalies, notes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, insertPayout,
		payout.ID,
		payout.OwnerID,
		payout.Amount,
		payout.Status,
		payout.Flagged,
		payout.RiskScore,
		anomaliesJSON,
		payout.Notes,
		payout.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, payout.OwnerID, "payout", payout.ID, "credit.payout_decided", events.PayoutDecided{
		PayoutID:  payout.ID,
		OwnerID:   payout.OwnerID,
		Amount:    payout.Amount,
		Status:    string(payout.Status),
		Flagged:   payout.Flagged,
		RiskScore: payout.RiskScore,
		DecidedAt: payout.CreatedAt,
	}); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return err
	}
	observability.RecordPayoutDecision(string(payout.Status), payout.RiskScore)
	return nil
}

// PayoutsByOwner returns the owner's payout history, newest first.
func (r *Repository) PayoutsByOwner(ctx context.Context, ownerID string) ([]domain.Payout, error) {
	const query = `SELECT payout_id, owner_id, amount, status, flagged, risk_score, anomalies, notes, created_at
        FROM payouts WHERE owner_id=$1 ORDER BY created_at DESC, payout_id DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Payout
	for rows.Next() {
		var (
			payout        domain.Payout
			anomaliesJSON []byte
		)
		if err := rows.Scan(&payout.ID, &payout.OwnerID, &payout.Amount, &payout.Status, &payout.Flagged, &payout.RiskScore, &anomaliesJSON, &payout.Notes, &payout.CreatedAt); err != nil {
			return nil, err
		}

		var records []anomalyRecord
		if len(anomaliesJSON) > 0 {
			if err := json.Unmarshal(anomaliesJSON, &records); err != nil {
				return nil, fmt.Errorf("decode anomalies for payout %s: %w", payout.ID, err)
			}
		}
		for _, rec := range records {
			payout.Anomalies = append(payout.Anomalies, domain.Anomaly(rec))
		}

		results = append(results, payout)
	}
	return results, rows.Err()
}

func insertOutbox(ctx context.Context, tx pgx.Tx, ownerID, aggregateType, aggregateID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s", aggregateID, eventType)

	const stmt = `INSERT INTO outbox (owner_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		ownerID,
		aggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		ownerID,
		body,
		dedupeKey,
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

// Both event streams partition by owner so per-farmer ordering holds downstream.
var eventCatalog = map[string]EventMetadata{
	"credit.log_recorded": {
		Topic:         "credit_events",
		SchemaSubject: "credit_events-value",
	},
	"credit.payout_decided": {
		Topic:         "payout_decisions",
		SchemaSubject: "payout_decisions-value",
	},
}
