package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vagasjr/vagasjr/internal/model"
)

const selectJob = `
SELECT j.id, j.title, j.company, j.location, j.description, j.url, j.salary,
       j.level, j.category, j.remote, j.source_id, s.name,
       j.posted_at, j.created_at, j.updated_at
  FROM jobs j
  JOIN sources s ON s.id = j.source_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(sc scanner) (*model.JobPosting, error) {
	var job model.JobPosting
	var level, category string
	var postedAt sql.NullTime

	err := sc.Scan(
		&job.ID, &job.Title, &job.Company, &job.Location, &job.Description,
		&job.URL, &job.Salary, &level, &category, &job.Remote,
		&job.SourceID, &job.SourceName, &postedAt, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Level = model.Level(level)
	job.Category = model.Category(category)
	if postedAt.Valid {
		t := postedAt.Time
		job.PostedAt = &t
	}
	return &job, nil
}

// Filter narrows a catalog listing. Zero values mean "no restriction".
type Filter struct {
	Search     string
	Levels     []model.Level
	Categories []model.Category
	Remote     *bool
	SourceIDs  []string
	Tags       []string      // normalized tag names
	MaxAge     time.Duration // effective-date window, 0 = all
	Limit      int
	Offset     int
}

// List returns a page of postings newest first (postedAt desc with nulls
// last, then createdAt desc) and the total row count for the filter.
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]model.JobPosting, int, error) {
	var where []string
	var args []any

	if f.Search != "" {
		like := "%" + f.Search + "%"
		where = append(where, "(j.title LIKE ? OR j.company LIKE ? OR j.description LIKE ?)")
		args = append(args, like, like, like)
	}
	if len(f.Levels) > 0 {
		ph := make([]string, len(f.Levels))
		for i, lvl := range f.Levels {
			ph[i] = "?"
			args = append(args, string(lvl))
		}
		where = append(where, "j.level IN ("+strings.Join(ph, ",")+")")
	}
	if len(f.Categories) > 0 {
		ph := make([]string, len(f.Categories))
		for i, cat := range f.Categories {
			ph[i] = "?"
			args = append(args, string(cat))
		}
		where = append(where, "j.category IN ("+strings.Join(ph, ",")+")")
	}
	if f.Remote != nil {
		where = append(where, "j.remote = ?")
		args = append(args, *f.Remote)
	}
	if len(f.SourceIDs) > 0 {
		ph := make([]string, len(f.SourceIDs))
		for i, id := range f.SourceIDs {
			ph[i] = "?"
			args = append(args, id)
		}
		where = append(where, "j.source_id IN ("+strings.Join(ph, ",")+")")
	}
	if len(f.Tags) > 0 {
		ph := make([]string, len(f.Tags))
		for i, tag := range f.Tags {
			ph[i] = "?"
			args = append(args, tag)
		}
		where = append(where,
			`j.id IN (SELECT jt.job_id FROM job_tags jt
			          JOIN tags t ON t.id = jt.tag_id
			          WHERE t.name IN (`+strings.Join(ph, ",")+`))`)
	}
	if f.MaxAge > 0 {
		cutoff := s.now().UTC().Add(-f.MaxAge)
		where = append(where, "((j.posted_at IS NOT NULL AND j.posted_at >= ?) OR (j.posted_at IS NULL AND j.created_at >= ?))")
		args = append(args, cutoff, cutoff)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM jobs j JOIN sources s ON s.id = j.source_id"+clause, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting jobs: %w", err)
	}

	query := selectJob + clause + " ORDER BY j.posted_at IS NULL, j.posted_at DESC, j.created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.JobPosting
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning job row: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range jobs {
		tags, err := s.tagsForJob(ctx, jobs[i].ID)
		if err != nil {
			return nil, 0, err
		}
		jobs[i].Tags = tags
	}

	return jobs, total, nil
}

// GetByID returns one posting with its tags, or nil when absent.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*model.JobPosting, error) {
	row := s.db.QueryRowContext(ctx, selectJob+" WHERE j.id = ?", id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %s: %w", id, err)
	}

	tags, err := s.tagsForJob(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Tags = tags
	return job, nil
}

func (s *SQLiteStore) tagsForJob(ctx context.Context, jobID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.name FROM tags t
		 JOIN job_tags jt ON jt.tag_id = t.id
		 WHERE jt.job_id = ? ORDER BY t.name`, jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading tags for job %s: %w", jobID, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

// Sources lists all registered collector sources.
func (s *SQLiteStore) Sources(ctx context.Context) ([]model.Source, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, url FROM sources ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var sources []model.Source
	for rows.Next() {
		var src model.Source
		if err := rows.Scan(&src.ID, &src.Name, &src.URL); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// Tags lists the tag vocabulary alphabetically.
func (s *SQLiteStore) Tags(ctx context.Context) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM tags ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Stats summarizes the catalog for the API's stats endpoint.
type Stats struct {
	Total      int            `json:"total"`
	Remote     int            `json:"remote"`
	BySource   map[string]int `json:"bySource"`
	ByLevel    map[string]int `json:"byLevel"`
	ByCategory map[string]int `json:"byCategory"`
}

// GetStats counts postings overall and grouped by source, level, and
// category.
func (s *SQLiteStore) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{
		BySource:   make(map[string]int),
		ByLevel:    make(map[string]int),
		ByCategory: make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&stats.Total); err != nil {
		return Stats{}, fmt.Errorf("counting jobs: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE remote = 1").Scan(&stats.Remote); err != nil {
		return Stats{}, fmt.Errorf("counting remote jobs: %w", err)
	}

	groups := []struct {
		query string
		into  map[string]int
	}{
		{"SELECT s.name, COUNT(*) FROM jobs j JOIN sources s ON s.id = j.source_id GROUP BY s.name", stats.BySource},
		{"SELECT level, COUNT(*) FROM jobs GROUP BY level", stats.ByLevel},
		{"SELECT category, COUNT(*) FROM jobs GROUP BY category", stats.ByCategory},
	}
	for _, g := range groups {
		rows, err := s.db.QueryContext(ctx, g.query)
		if err != nil {
			return Stats{}, fmt.Errorf("grouping stats: %w", err)
		}
		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return Stats{}, fmt.Errorf("scanning stats row: %w", err)
			}
			g.into[key] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return Stats{}, err
		}
		rows.Close()
	}

	return stats, nil
}
