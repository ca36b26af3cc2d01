// Package store owns the canonical job catalog: sources, postings, and tags
// in a single sqlite database. Collectors are the only writers of job rows
// (through UpsertByURL); the serving layer reads concurrently. The two
// maintenance sweeps operate on disjoint or already-duplicate rows and are
// safe against concurrent ingestion, but callers must not run either sweep
// concurrently with itself.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
	_ "modernc.org/sqlite"

	"github.com/vagasjr/vagasjr/internal/model"
)

// fuzzyProbe bounds the secondary duplicate check: candidates are narrowed by
// a substring match on the first companyPrefixLen characters of the company
// name before the exact normalized comparison. Cheap, with a small recall
// cost when companies rename themselves mid-prefix.
const (
	companyPrefixLen = 10
	fuzzyProbeLimit  = 100
)

const schema = `
CREATE TABLE IF NOT EXISTS sources (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	url  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	company     TEXT NOT NULL,
	location    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL UNIQUE,
	salary      TEXT NOT NULL DEFAULT '',
	level       TEXT NOT NULL,
	category    TEXT NOT NULL,
	remote      INTEGER NOT NULL DEFAULT 0,
	source_id   TEXT NOT NULL REFERENCES sources(id),
	posted_at   DATETIME,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);

CREATE TABLE IF NOT EXISTS tags (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS job_tags (
	job_id TEXT NOT NULL REFERENCES jobs(id),
	tag_id TEXT NOT NULL REFERENCES tags(id),
	PRIMARY KEY (job_id, tag_id)
);
`

// SQLiteStore is the sqlite-backed job catalog.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the catalog database at dbPath and ensures the
// schema exists.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetOrCreateSource registers a collector's source row on first write and
// refreshes its URL afterwards.
func (s *SQLiteStore) GetOrCreateSource(ctx context.Context, name, url string) (model.Source, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sources (id, name, url) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET url = excluded.url`,
		ksuid.New().String(), name, url,
	)
	if err != nil {
		return model.Source{}, fmt.Errorf("upserting source %s: %w", name, err)
	}

	var src model.Source
	err = s.db.QueryRowContext(ctx,
		"SELECT id, name, url FROM sources WHERE name = ?", name,
	).Scan(&src.ID, &src.Name, &src.URL)
	if err != nil {
		return model.Source{}, fmt.Errorf("reading source %s: %w", name, err)
	}
	return src, nil
}

// FindByURL returns the posting with the given URL, or nil when absent.
func (s *SQLiteStore) FindByURL(ctx context.Context, url string) (*model.JobPosting, error) {
	row := s.db.QueryRowContext(ctx, selectJob+" WHERE j.url = ?", url)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding job by url: %w", err)
	}
	return job, nil
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UpsertByURL creates the posting unless an equivalent one already exists.
// Equivalence is exact URL match first, then a bounded fuzzy probe: rows
// sharing a company-name prefix are compared on normalized title+company.
// Returns (nil, nil) when the posting is a duplicate.
func (s *SQLiteStore) UpsertByURL(ctx context.Context, job model.JobPosting) (*model.JobPosting, error) {
	existing, err := s.FindByURL(ctx, job.URL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	dup, err := s.hasFuzzyDuplicate(ctx, job.Title, job.Company)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, nil
	}

	return s.insert(ctx, job)
}

func (s *SQLiteStore) hasFuzzyDuplicate(ctx context.Context, title, company string) (bool, error) {
	prefix := []rune(company)
	if len(prefix) > companyPrefixLen {
		prefix = prefix[:companyPrefixLen]
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT title, company FROM jobs WHERE company LIKE '%' || ? || '%' LIMIT ?`,
		string(prefix), fuzzyProbeLimit,
	)
	if err != nil {
		return false, fmt.Errorf("probing duplicates for %s: %w", company, err)
	}
	defer rows.Close()

	wantTitle := normalizeKey(title)
	wantCompany := normalizeKey(company)

	for rows.Next() {
		var gotTitle, gotCompany string
		if err := rows.Scan(&gotTitle, &gotCompany); err != nil {
			return false, fmt.Errorf("scanning duplicate probe: %w", err)
		}
		if normalizeKey(gotTitle) == wantTitle && normalizeKey(gotCompany) == wantCompany {
			return true, nil
		}
	}
	return false, rows.Err()
}

func (s *SQLiteStore) insert(ctx context.Context, job model.JobPosting) (*model.JobPosting, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning insert tx: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()
	job.ID = ksuid.New().String()
	job.CreatedAt = now
	job.UpdatedAt = now

	if len(job.Description) > model.MaxDescriptionLen {
		job.Description = job.Description[:model.MaxDescriptionLen]
	}
	job.Tags = dedupeTags(job.Tags, model.MaxTags)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO jobs (id, title, company, location, description, url, salary,
		                   level, category, remote, source_id, posted_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Title, job.Company, job.Location, job.Description, job.URL, job.Salary,
		string(job.Level), string(job.Category), job.Remote, job.SourceID, job.PostedAt,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting job %s: %w", job.URL, err)
	}

	for _, tag := range job.Tags {
		tagID, err := connectOrCreateTag(ctx, tx, tag)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO job_tags (job_id, tag_id) VALUES (?, ?)",
			job.ID, tagID,
		)
		if err != nil {
			return nil, fmt.Errorf("linking tag %s: %w", tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing job %s: %w", job.URL, err)
	}
	return &job, nil
}

func connectOrCreateTag(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, "SELECT id FROM tags WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("looking up tag %s: %w", name, err)
	}

	id = ksuid.New().String()
	if _, err := tx.ExecContext(ctx, "INSERT INTO tags (id, name) VALUES (?, ?)", id, name); err != nil {
		return "", fmt.Errorf("creating tag %s: %w", name, err)
	}
	return id, nil
}

func dedupeTags(tags []string, limit int) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// DuplicateSweep reports what RemoveDuplicates deleted.
type DuplicateSweep struct {
	Removed    int      `json:"removed"`
	Duplicates []string `json:"duplicates"`
}

// RemoveDuplicates scans the whole catalog ordered by creation time and
// keeps only the earliest posting for each normalized (title, company) pair.
// Tag links of removed rows are deleted first.
func (s *SQLiteStore) RemoveDuplicates(ctx context.Context) (DuplicateSweep, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, company FROM jobs ORDER BY created_at ASC",
	)
	if err != nil {
		return DuplicateSweep{}, fmt.Errorf("scanning for duplicates: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var toDelete []string
	var names []string

	for rows.Next() {
		var id, title, company string
		if err := rows.Scan(&id, &title, &company); err != nil {
			return DuplicateSweep{}, fmt.Errorf("scanning duplicate row: %w", err)
		}
		key := normalizeKey(title) + "|" + normalizeKey(company)
		if seen[key] {
			toDelete = append(toDelete, id)
			names = append(names, title+" - "+company)
			continue
		}
		seen[key] = true
	}
	if err := rows.Err(); err != nil {
		return DuplicateSweep{}, err
	}

	if err := s.deleteJobs(ctx, toDelete); err != nil {
		return DuplicateSweep{}, err
	}

	return DuplicateSweep{Removed: len(toDelete), Duplicates: names}, nil
}

// RetentionSweep reports what CleanupOldJobs deleted.
type RetentionSweep struct {
	Deleted int      `json:"deleted"`
	Jobs    []string `json:"jobs"`
}

// CleanupOldJobs removes postings whose effective date (postedAt, falling
// back to createdAt) is older than maxAgeDays.
func (s *SQLiteStore) CleanupOldJobs(ctx context.Context, maxAgeDays int) (RetentionSweep, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -maxAgeDays)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, company FROM jobs
		 WHERE (posted_at IS NOT NULL AND posted_at < ?)
		    OR (posted_at IS NULL AND created_at < ?)`,
		cutoff, cutoff,
	)
	if err != nil {
		return RetentionSweep{}, fmt.Errorf("selecting old jobs: %w", err)
	}
	defer rows.Close()

	var ids []string
	var names []string
	for rows.Next() {
		var id, title, company string
		if err := rows.Scan(&id, &title, &company); err != nil {
			return RetentionSweep{}, fmt.Errorf("scanning old job: %w", err)
		}
		ids = append(ids, id)
		names = append(names, title+" - "+company)
	}
	if err := rows.Err(); err != nil {
		return RetentionSweep{}, err
	}

	if err := s.deleteJobs(ctx, ids); err != nil {
		return RetentionSweep{}, err
	}

	return RetentionSweep{Deleted: len(ids), Jobs: names}, nil
}

// deleteJobs removes tag links first, then the rows, in one transaction.
func (s *SQLiteStore) deleteJobs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete tx: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM job_tags WHERE job_id IN ("+placeholders+")", args...,
	); err != nil {
		return fmt.Errorf("deleting tag links: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM jobs WHERE id IN ("+placeholders+")", args...,
	); err != nil {
		return fmt.Errorf("deleting jobs: %w", err)
	}

	return tx.Commit()
}
