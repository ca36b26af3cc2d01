package model

import (
	"context"
	"time"
)

// Level is the seniority bucket a posting is classified into.
type Level string

const (
	LevelInternship Level = "INTERNSHIP"
	LevelJunior     Level = "JUNIOR"
	LevelMid        Level = "MID"
)

// Category is the broad technical area of a posting.
type Category string

const (
	CategoryFrontend  Category = "FRONTEND"
	CategoryBackend   Category = "BACKEND"
	CategoryFullstack Category = "FULLSTACK"
	CategoryMobile    Category = "MOBILE"
)

// MaxDescriptionLen caps stored description text.
const MaxDescriptionLen = 5000

// MaxTags caps how many tags a single posting may carry.
const MaxTags = 15

// JobPosting is the canonical record for one job offer in the catalog.
type JobPosting struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"` // empty when the source didn't provide one
	Description string     `json:"description"`        // capped at MaxDescriptionLen on write
	URL         string     `json:"url"`                // unique natural key
	Salary      string     `json:"salary,omitempty"`   // raw salary text, empty when absent
	Level       Level      `json:"level"`
	Category    Category   `json:"category"`
	Remote      bool       `json:"remote"`
	SourceID    string     `json:"sourceId"`
	SourceName  string     `json:"sourceName,omitempty"`
	Tags        []string   `json:"tags"`
	PostedAt    *time.Time `json:"postedAt"`  // from the source, nullable
	CreatedAt   time.Time  `json:"createdAt"` // ingestion time
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Source identifies which collector produced a posting.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Tag is a normalized technology keyword attached to postings.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ScraperResult summarizes one collector's run. This shape is the unit of
// observability for a sync cycle and is reported verbatim over the API.
type ScraperResult struct {
	Source    string   `json:"source"`
	JobsFound int      `json:"jobsFound"`
	JobsAdded int      `json:"jobsAdded"`
	Errors    []string `json:"errors"`
}

// Collector fetches and normalizes postings from one external source.
// Scrape never fails: transport and per-item errors are recorded in the
// result's Errors list and processing continues with the next item.
type Collector interface {
	Name() string
	Scrape(ctx context.Context) ScraperResult
}

// JobStore is the write-side contract collectors use. UpsertByURL returns
// (nil, nil) when an equivalent posting already exists.
type JobStore interface {
	GetOrCreateSource(ctx context.Context, name, url string) (Source, error)
	FindByURL(ctx context.Context, url string) (*JobPosting, error)
	UpsertByURL(ctx context.Context, job JobPosting) (*JobPosting, error)
}
