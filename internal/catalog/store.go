package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"orrery/internal/config"
)

// ErrInvalidCandidate indicates a candidate that violates a store invariant.
var ErrInvalidCandidate = errors.New("invalid candidate")

// Store manages candidate and pass persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the filesystem location of the database.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Insert persists a new candidate and returns the stored row. Candidates are
// written once per identity; the pass that discovers an identity is the only
// writer for it.
func (s *Store) Insert(ctx context.Context, candidate *Candidate) (*Candidate, error) {
	if err := validateCandidate(candidate); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	syncedAt := candidate.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = now
	}

	var verdictJSON any
	if candidate.Verdict != nil {
		encoded, err := json.Marshal(candidate.Verdict)
		if err != nil {
			return nil, fmt.Errorf("marshal verdict: %w", err)
		}
		verdictJSON = string(encoded)
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO candidates (
            identity, status, assigned_name, classified_by_automation,
            verdict_json, fields_json, source, synced_at, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		candidate.Identity,
		string(candidate.Status),
		nullableString(candidate.AssignedName),
		boolToInt(candidate.ClassifiedByAutomation),
		verdictJSON,
		nullableString(candidate.FieldsJSON),
		nullableString(candidate.Source),
		syncedAt.Format(time.RFC3339Nano),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert candidate %s: %w", candidate.Identity, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.getByID(ctx, id)
}

func (s *Store) getByID(ctx context.Context, id int64) (*Candidate, error) {
	row := s.db.QueryRowContext(ctx, selectCandidateSQL+" WHERE id = ?", id)
	candidate, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate %d: %w", id, err)
	}
	return candidate, nil
}

// GetByIdentity returns the candidate with the given identity, or nil when no
// such row exists.
func (s *Store) GetByIdentity(ctx context.Context, identity string) (*Candidate, error) {
	row := s.db.QueryRowContext(ctx, selectCandidateSQL+" WHERE identity = ?", identity)
	candidate, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", identity, err)
	}
	return candidate, nil
}

// Identities returns the set of identities already persisted.
func (s *Store) Identities(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT identity FROM candidates")
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	identities := make(map[string]struct{})
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities[identity] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}

// NamedWithIdentityPrefix returns candidates whose identity starts with the
// given prefix and which already carry an assigned name.
func (s *Store) NamedWithIdentityPrefix(ctx context.Context, prefix string) ([]*Candidate, error) {
	rows, err := s.db.QueryContext(
		ctx,
		selectCandidateSQL+" WHERE identity LIKE ? ESCAPE '\\' AND assigned_name IS NOT NULL ORDER BY identity",
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("query named candidates: %w", err)
	}
	defer rows.Close()
	return collectCandidates(rows)
}

// AssignedNames returns every assigned name in the store.
func (s *Store) AssignedNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT assigned_name FROM candidates WHERE assigned_name IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("query assigned names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan assigned name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assigned names: %w", err)
	}
	return names, nil
}

// List returns candidates, optionally filtered to the given statuses, newest
// first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Candidate, error) {
	query := selectCandidateSQL
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()
	return collectCandidates(rows)
}

// Stats returns the candidate count per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM candidates GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var statusStr string
		var count int
		if err := rows.Scan(&statusStr, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[Status(statusStr)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

const selectCandidateSQL = `SELECT
    id, identity, status, assigned_name, classified_by_automation,
    verdict_json, fields_json, source, synced_at, created_at, updated_at
FROM candidates`

func collectCandidates(rows *sql.Rows) ([]*Candidate, error) {
	var candidates []*Candidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}

func scanCandidate(scanner interface{ Scan(dest ...any) error }) (*Candidate, error) {
	var (
		id           int64
		identity     string
		statusStr    string
		assignedName sql.NullString
		automated    sql.NullInt64
		verdictRaw   sql.NullString
		fieldsRaw    sql.NullString
		source       sql.NullString
		syncedRaw    sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&identity,
		&statusStr,
		&assignedName,
		&automated,
		&verdictRaw,
		&fieldsRaw,
		&source,
		&syncedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	candidate := &Candidate{
		ID:           id,
		Identity:     identity,
		Status:       Status(statusStr),
		AssignedName: assignedName.String,
		FieldsJSON:   fieldsRaw.String,
		Source:       source.String,
	}
	if automated.Valid {
		candidate.ClassifiedByAutomation = automated.Int64 != 0
	}
	if verdictRaw.Valid && verdictRaw.String != "" {
		var verdict Verdict
		if err := json.Unmarshal([]byte(verdictRaw.String), &verdict); err != nil {
			return nil, fmt.Errorf("unmarshal verdict for %s: %w", identity, err)
		}
		candidate.Verdict = &verdict
	}

	if synced, err := parseTimeString(syncedRaw.String); err == nil {
		candidate.SyncedAt = synced
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		candidate.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		candidate.UpdatedAt = updated
	}

	return candidate, nil
}

func validateCandidate(candidate *Candidate) error {
	if candidate == nil {
		return fmt.Errorf("%w: nil candidate", ErrInvalidCandidate)
	}
	if strings.TrimSpace(candidate.Identity) == "" {
		return fmt.Errorf("%w: identity is required", ErrInvalidCandidate)
	}
	if !IsValidStatus(candidate.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidCandidate, candidate.Status)
	}
	named := candidate.AssignedName != ""
	if candidate.Status == StatusConfirmed && !named {
		return fmt.Errorf("%w: confirmed candidate %s has no assigned name", ErrInvalidCandidate, candidate.Identity)
	}
	if candidate.Status != StatusConfirmed && named {
		return fmt.Errorf("%w: %s has an assigned name but status %s", ErrInvalidCandidate, candidate.Identity, candidate.Status)
	}
	return nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func escapeLike(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "%", `\%`)
	return strings.ReplaceAll(value, "_", `\_`)
}
