package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vagasjr/vagasjr/internal/classify"
	"github.com/vagasjr/vagasjr/internal/fetch"
	"github.com/vagasjr/vagasjr/internal/model"
	"github.com/vagasjr/vagasjr/internal/ratelimit"
)

const (
	linkedinOrigin       = "https://br.linkedin.com"
	linkedinDescFallback = "Vaga encontrada no LinkedIn. Acesse o link para mais detalhes."
)

type linkedinSearch struct {
	URL      string
	Name     string
	Category model.Category // used when the posting text doesn't score an area
}

// cardSelectors locate job cards on the public search page; the markup
// changes often, so each is tried in order until one yields cards.
var linkedinCardSelectors = []string{
	".jobs-search__results-list li",
	".job-search-card",
	".base-card",
}

var linkedinDescSelectors = []string{
	".description__text",
	".show-more-less-html__markup",
	".jobs-description__content",
}

// LinkedIn collects postings from the public (unauthenticated) job search
// pages. Titles without an explicit internship or junior marker are
// discarded: the search results mix all seniorities.
type LinkedIn struct {
	store    model.JobStore
	client   *fetch.Client
	logger   *slog.Logger
	origin   string
	searches []linkedinSearch
}

func NewLinkedIn(store model.JobStore, limiter *ratelimit.SourceLimiter, delay time.Duration, logger *slog.Logger) *LinkedIn {
	base := linkedinOrigin + "/jobs/search?location=Brazil&f_TPR=r604800&keywords="
	return &LinkedIn{
		store:  store,
		client: fetch.NewClient("LinkedIn", limiter, delay, logger),
		logger: logger.With("collector", "LinkedIn"),
		origin: linkedinOrigin,
		searches: []linkedinSearch{
			{URL: base + "desenvolvedor%20junior", Name: "desenvolvedor junior", Category: model.CategoryFullstack},
			{URL: base + "desenvolvedor%20frontend%20junior", Name: "frontend junior", Category: model.CategoryFrontend},
			{URL: base + "desenvolvedor%20backend%20junior", Name: "backend junior", Category: model.CategoryBackend},
			{URL: base + "est%C3%A1gio%20desenvolvimento", Name: "estagio desenvolvimento", Category: model.CategoryFullstack},
			{URL: base + "desenvolvedor%20mobile%20junior", Name: "mobile junior", Category: model.CategoryMobile},
		},
	}
}

func (l *LinkedIn) Name() string { return "LinkedIn" }

func (l *LinkedIn) Scrape(ctx context.Context) model.ScraperResult {
	result := model.ScraperResult{Source: l.Name(), Errors: []string{}}

	source, err := l.store.GetOrCreateSource(ctx, "LinkedIn", l.origin+"/jobs")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("registering source: %v", err))
		return result
	}

	for _, search := range l.searches {
		if err := l.scrapeSearch(ctx, search, source.ID, &result); err != nil {
			l.logger.Error("search failed", "search", search.Name, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("search %q: %v", search.Name, err))
		}
	}

	l.logger.Info("scrape finished", "found", result.JobsFound, "added", result.JobsAdded, "errors", len(result.Errors))
	return result
}

func (l *LinkedIn) scrapeSearch(ctx context.Context, search linkedinSearch, sourceID string, result *model.ScraperResult) error {
	page, err := l.client.GetText(ctx, search.URL)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return fmt.Errorf("parsing search page: %w", err)
	}

	var cards *goquery.Selection
	for _, selector := range linkedinCardSelectors {
		cards = doc.Find(selector)
		if cards.Length() > 0 {
			break
		}
	}
	if cards == nil || cards.Length() == 0 {
		l.logger.Warn("no job cards on page", "search", search.Name)
		return nil
	}
	result.JobsFound += cards.Length()

	var itemErr error
	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if err := ctx.Err(); err != nil {
			itemErr = err
			return false
		}
		if err := l.processCard(ctx, card, search, sourceID, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("search %q item: %v", search.Name, err))
		}
		return true
	})
	return itemErr
}

func (l *LinkedIn) processCard(ctx context.Context, card *goquery.Selection, search linkedinSearch, sourceID string, result *model.ScraperResult) error {
	title := firstText(card, ".base-search-card__title", ".job-search-card__title", "h3")
	company := firstText(card, ".base-search-card__subtitle", ".job-search-card__subtitle", "h4")
	location := firstText(card, ".job-search-card__location", ".base-search-card__metadata")
	href, _ := card.Find("a.base-card__full-link").First().Attr("href")
	if href == "" {
		href, _ = card.Find("a").First().Attr("href")
	}
	if title == "" || href == "" {
		return nil
	}

	// Search results mix seniorities; only explicit markers pass.
	level := classify.DetectLevel(title, "")
	if level == "" {
		return nil
	}

	jobURL := absoluteURL(l.origin, strings.TrimSpace(href))
	if i := strings.Index(jobURL, "?"); i > 0 {
		jobURL = jobURL[:i]
	}

	existing, err := l.store.FindByURL(ctx, jobURL)
	if err != nil {
		return fmt.Errorf("checking %s: %w", jobURL, err)
	}
	if existing != nil {
		return nil // skip the detail fetch entirely
	}

	description := l.fetchDescription(ctx, jobURL)
	if description == "" {
		description = linkedinDescFallback
	}

	var postedAt *time.Time
	if datetime, ok := card.Find("time").First().Attr("datetime"); ok {
		if t, err := time.Parse("2006-01-02", datetime); err == nil {
			postedAt = &t
		}
	}

	fullText := title + " " + description
	category, ok := classify.ScoreCategory(fullText)
	if !ok {
		category = search.Category
	}

	job := model.JobPosting{
		Title:       title,
		Company:     company,
		Location:    location,
		Description: truncate(description, model.MaxDescriptionLen),
		URL:         jobURL,
		Level:       level,
		Category:    category,
		Remote:      classify.DetectRemote(title, location, description),
		SourceID:    sourceID,
		Tags:        classify.MergeTags(model.MaxTags, classify.ExtractTags(fullText)),
		PostedAt:    postedAt,
	}

	created, err := l.store.UpsertByURL(ctx, job)
	if err != nil {
		return fmt.Errorf("upserting %s: %w", jobURL, err)
	}
	if created != nil {
		result.JobsAdded++
	}
	return nil
}

// fetchDescription loads the posting's own page for the full text. Any
// failure degrades to the card-only data.
func (l *LinkedIn) fetchDescription(ctx context.Context, jobURL string) string {
	page, err := l.client.GetText(ctx, jobURL)
	if err != nil {
		l.logger.Debug("detail fetch failed", "url", jobURL, "error", err)
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	return descriptionFromDoc(doc, linkedinDescSelectors, 50)
}
