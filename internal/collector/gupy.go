package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/vagasjr/vagasjr/internal/classify"
	"github.com/vagasjr/vagasjr/internal/fetch"
	"github.com/vagasjr/vagasjr/internal/model"
	"github.com/vagasjr/vagasjr/internal/ratelimit"
)

const gupyMaxAgeDays = 45

var gupySearchTerms = []string{
	"desenvolvedor junior",
	"desenvolvedor jr",
	"desenvolvedora junior",
	"programador junior",
	"estagio desenvolvimento",
	"estagio programacao",
	"estagiario desenvolvimento",
	"analista desenvolvimento junior",
	"frontend junior",
	"backend junior",
	"fullstack junior",
	"mobile junior",
	"trainee desenvolvimento",
}

// Gupy collects postings from the Gupy ATS public search API. The same
// posting surfaces under several search terms, so URLs already seen in the
// current run are skipped before touching the store.
type Gupy struct {
	store   model.JobStore
	client  *fetch.Client
	logger  *slog.Logger
	apiBase string
	terms   []string
	now     func() time.Time
}

type gupyResponse struct {
	Data []gupyJob `json:"data"`
}

type gupyJob struct {
	Name           string `json:"name"`
	CareerPageName string `json:"careerPageName"`
	Description    string `json:"description"`
	JobURL         string `json:"jobUrl"`
	Type           string `json:"type"`
	City           string `json:"city"`
	State          string `json:"state"`
	IsRemoteWork   bool   `json:"isRemoteWork"`
	WorkplaceType  string `json:"workplaceType"`
	PublishedDate  string `json:"publishedDate"`
}

func NewGupy(store model.JobStore, limiter *ratelimit.SourceLimiter, delay time.Duration, logger *slog.Logger) *Gupy {
	return &Gupy{
		store:   store,
		client:  fetch.NewClient("Gupy", limiter, delay, logger),
		logger:  logger.With("collector", "Gupy"),
		apiBase: "https://portal.api.gupy.io/api/v1/jobs",
		terms:   gupySearchTerms,
		now:     time.Now,
	}
}

func (g *Gupy) Name() string { return "Gupy" }

func (g *Gupy) Scrape(ctx context.Context) model.ScraperResult {
	result := model.ScraperResult{Source: g.Name(), Errors: []string{}}

	source, err := g.store.GetOrCreateSource(ctx, "Gupy", "https://portal.gupy.io")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("registering source: %v", err))
		return result
	}

	seen := make(map[string]bool)
	cutoff := g.now().UTC().AddDate(0, 0, -gupyMaxAgeDays)

	for _, term := range g.terms {
		endpoint := g.apiBase + "?" + url.Values{
			"jobName": {term},
			"limit":   {"50"},
			"offset":  {"0"},
			"orderBy": {"publishedDate"},
		}.Encode()

		var resp gupyResponse
		if err := g.client.GetJSON(ctx, endpoint, &resp); err != nil {
			g.logger.Error("search failed", "term", term, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("search %q: %v", term, err))
			continue
		}
		result.JobsFound += len(resp.Data)

		for _, item := range resp.Data {
			if item.JobURL == "" || seen[item.JobURL] {
				continue
			}
			seen[item.JobURL] = true

			job, ok := g.parseJob(item, source.ID, cutoff)
			if !ok {
				continue
			}
			created, err := g.store.UpsertByURL(ctx, job)
			if err != nil {
				g.logger.Warn("upsert failed", "url", item.JobURL, "error", err)
				result.Errors = append(result.Errors, fmt.Sprintf("job %s: %v", item.JobURL, err))
				continue
			}
			if created != nil {
				result.JobsAdded++
			}
		}
	}

	g.logger.Info("scrape finished", "found", result.JobsFound, "added", result.JobsAdded, "errors", len(result.Errors))
	return result
}

// parseJob filters and normalizes one API item. It returns ok=false when the
// posting is too old, not junior/internship level, or not a tech role.
func (g *Gupy) parseJob(item gupyJob, sourceID string, cutoff time.Time) (model.JobPosting, bool) {
	var postedAt *time.Time
	if item.PublishedDate != "" {
		if t, err := time.Parse(time.RFC3339, item.PublishedDate); err == nil {
			if t.Before(cutoff) {
				return model.JobPosting{}, false
			}
			postedAt = &t
		}
	}

	level := classify.DetectLevel(item.Name+" "+item.Type, "")
	if level == "" {
		return model.JobPosting{}, false
	}

	description := stripHTML(item.Description)
	if !classify.IsTechJob(item.Name + " " + description) {
		return model.JobPosting{}, false
	}

	location := item.City
	if item.State != "" {
		if location != "" {
			location += ", " + item.State
		} else {
			location = item.State
		}
	}

	fullText := item.Name + " " + description
	return model.JobPosting{
		Title:       item.Name,
		Company:     item.CareerPageName,
		Location:    location,
		Description: truncate(description, model.MaxDescriptionLen),
		URL:         item.JobURL,
		Level:       level,
		Category:    classify.DetectCategory(fullText),
		Remote:      item.IsRemoteWork || strings.EqualFold(item.WorkplaceType, "remote"),
		SourceID:    sourceID,
		Tags:        classify.MergeTags(compactTagLimit, classify.ExtractTags(fullText)),
		PostedAt:    postedAt,
	}, true
}
