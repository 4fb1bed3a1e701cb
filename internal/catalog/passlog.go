package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// AppendPass writes a finished pass record to the append-only log. Records are
// written exactly once, after the pass has finished; nothing updates them.
func (s *Store) AppendPass(ctx context.Context, record *PassRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("append pass: record id is required")
	}

	var detailsJSON any
	if len(record.Details) > 0 {
		encoded, err := json.Marshal(record.Details)
		if err != nil {
			return fmt.Errorf("marshal pass details: %w", err)
		}
		detailsJSON = string(encoded)
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO passes (
            id, started_at, finished_at, success, message,
            fetched, new_records, confirmed, candidates, false_positives,
            dispatched, gateway_confirmed, gateway_false_positives,
            unsupported, errors, details_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.StartedAt.UTC().Format(time.RFC3339Nano),
		record.FinishedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(record.Success),
		nullableString(record.Message),
		record.Counts.Fetched,
		record.Counts.New,
		record.Counts.Confirmed,
		record.Counts.Candidates,
		record.Counts.FalsePositives,
		record.Counts.Dispatched,
		record.Counts.GatewayConfirmed,
		record.Counts.GatewayFalsePositives,
		record.Counts.Unsupported,
		record.Counts.Errors,
		detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("append pass %s: %w", record.ID, err)
	}
	return nil
}

// RecentPasses returns pass records newest first, up to limit. A non-positive
// limit returns every record.
func (s *Store) RecentPasses(ctx context.Context, limit int) ([]*PassRecord, error) {
	query := selectPassSQL + " ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	var records []*PassRecord
	for rows.Next() {
		record, err := scanPass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return records, nil
}

// LastPass returns the most recent pass record, or nil when the log is empty.
func (s *Store) LastPass(ctx context.Context) (*PassRecord, error) {
	row := s.db.QueryRowContext(ctx, selectPassSQL+" ORDER BY started_at DESC LIMIT 1")
	record, err := scanPass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last pass: %w", err)
	}
	return record, nil
}

const selectPassSQL = `SELECT
    id, started_at, finished_at, success, message,
    fetched, new_records, confirmed, candidates, false_positives,
    dispatched, gateway_confirmed, gateway_false_positives,
    unsupported, errors, details_json
FROM passes`

func scanPass(scanner interface{ Scan(dest ...any) error }) (*PassRecord, error) {
	var (
		id          string
		startedRaw  string
		finishedRaw string
		success     int
		message     sql.NullString
		counts      PassCounts
		detailsRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&startedRaw,
		&finishedRaw,
		&success,
		&message,
		&counts.Fetched,
		&counts.New,
		&counts.Confirmed,
		&counts.Candidates,
		&counts.FalsePositives,
		&counts.Dispatched,
		&counts.GatewayConfirmed,
		&counts.GatewayFalsePositives,
		&counts.Unsupported,
		&counts.Errors,
		&detailsRaw,
	); err != nil {
		return nil, err
	}

	record := &PassRecord{
		ID:      id,
		Success: success != 0,
		Message: message.String,
		Counts:  counts,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		record.StartedAt = started
	}
	if finished, err := parseTimeString(finishedRaw); err == nil {
		record.FinishedAt = finished
	}
	if detailsRaw.Valid && detailsRaw.String != "" {
		if err := json.Unmarshal([]byte(detailsRaw.String), &record.Details); err != nil {
			return nil, fmt.Errorf("unmarshal pass details for %s: %w", id, err)
		}
	}
	return record, nil
}
