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

const programathorOrigin = "https://programathor.com.br"

type programathorSearch struct {
	Path string
	Name string
}

var programathorDescSelectors = []string{
	".container-job-description",
	".job-description",
	".line-height-2-4",
}

// Programathor collects postings from programathor.com.br, a Brazilian board
// dedicated to software roles, so no tech gate is needed. Its expertise
// filter pages are already junior/internship scoped, which makes JUNIOR a
// safe level fallback.
type Programathor struct {
	store    model.JobStore
	client   *fetch.Client
	logger   *slog.Logger
	origin   string
	searches []programathorSearch
}

func NewProgramathor(store model.JobStore, limiter *ratelimit.SourceLimiter, delay time.Duration, logger *slog.Logger) *Programathor {
	return &Programathor{
		store:  store,
		client: fetch.NewClient("Programathor", limiter, delay, logger),
		logger: logger.With("collector", "Programathor"),
		origin: programathorOrigin,
		searches: []programathorSearch{
			{Path: "/jobs-junior", Name: "junior"},
			{Path: "/jobs-estagio", Name: "estagio"},
		},
	}
}

func (p *Programathor) Name() string { return "Programathor" }

func (p *Programathor) Scrape(ctx context.Context) model.ScraperResult {
	result := model.ScraperResult{Source: p.Name(), Errors: []string{}}

	source, err := p.store.GetOrCreateSource(ctx, "Programathor", p.origin)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("registering source: %v", err))
		return result
	}

	seen := make(map[string]bool)
	for _, search := range p.searches {
		if err := p.scrapeSearch(ctx, search, source.ID, seen, &result); err != nil {
			p.logger.Error("search failed", "search", search.Name, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("search %q: %v", search.Name, err))
		}
	}

	p.logger.Info("scrape finished", "found", result.JobsFound, "added", result.JobsAdded, "errors", len(result.Errors))
	return result
}

type programathorCard struct {
	title    string
	company  string
	location string
	tags     []string
	url      string
}

func (p *Programathor) scrapeSearch(ctx context.Context, search programathorSearch, sourceID string, seen map[string]bool, result *model.ScraperResult) error {
	page, err := p.client.GetText(ctx, p.origin+search.Path)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return fmt.Errorf("parsing search page: %w", err)
	}

	cards := p.extractCards(doc)
	result.JobsFound += len(cards)

	for _, card := range cards {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processCard(ctx, card, search, sourceID, seen, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("search %q item: %v", search.Name, err))
		}
	}
	return nil
}

// extractCards reads the .cell-list card layout, falling back to bare job
// links when the board reworks its markup.
func (p *Programathor) extractCards(doc *goquery.Document) []programathorCard {
	var cards []programathorCard

	doc.Find(".cell-list").Each(func(_ int, cell *goquery.Selection) {
		link := cell.Closest("a")
		if link.Length() == 0 {
			link = cell.Find("a").First()
		}
		href, _ := link.Attr("href")
		if href == "" {
			return
		}
		var tags []string
		cell.Find(".tag, .skill, .cell-list-tags span").Each(func(_ int, chip *goquery.Selection) {
			if t := strings.TrimSpace(chip.Text()); t != "" {
				tags = append(tags, t)
			}
		})
		cards = append(cards, programathorCard{
			title:    firstText(cell, "h3", ".cell-list-title"),
			company:  firstText(cell, ".cell-list-company", "span.color-gray"),
			location: firstText(cell, ".cell-list-location", ".fa-map-marker-alt"),
			tags:     tags,
			url:      absoluteURL(p.origin, href),
		})
	})
	if len(cards) > 0 {
		return cards
	}

	doc.Find(`a[href*="/jobs/"]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if href == "" || title == "" {
			return
		}
		cards = append(cards, programathorCard{
			title: title,
			url:   absoluteURL(p.origin, href),
		})
	})
	return cards
}

func (p *Programathor) processCard(ctx context.Context, card programathorCard, search programathorSearch, sourceID string, seen map[string]bool, result *model.ScraperResult) error {
	if card.title == "" || card.url == "" || seen[card.url] {
		return nil
	}
	seen[card.url] = true

	existing, err := p.store.FindByURL(ctx, card.url)
	if err != nil {
		return fmt.Errorf("checking %s: %w", card.url, err)
	}
	if existing != nil {
		return nil
	}

	description := p.fetchDescription(ctx, card.url)
	fullText := card.title + " " + search.Name + " " + description

	job := model.JobPosting{
		Title:       card.title,
		Company:     card.company,
		Location:    card.location,
		Description: truncate(description, model.MaxDescriptionLen),
		URL:         card.url,
		Salary:      classify.ExtractSalary(description),
		Level:       classify.DetectLevel(fullText, model.LevelJunior),
		Category:    classify.DetectCategory(fullText),
		Remote:      classify.DetectRemote(card.title, card.location, description),
		SourceID:    sourceID,
		Tags: classify.MergeTags(model.MaxTags,
			card.tags,
			classify.ExtractTags(fullText),
		),
	}

	created, err := p.store.UpsertByURL(ctx, job)
	if err != nil {
		return fmt.Errorf("upserting %s: %w", card.url, err)
	}
	if created != nil {
		result.JobsAdded++
	}
	return nil
}

func (p *Programathor) fetchDescription(ctx context.Context, jobURL string) string {
	page, err := p.client.GetText(ctx, jobURL)
	if err != nil {
		p.logger.Debug("detail fetch failed", "url", jobURL, "error", err)
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	return descriptionFromDoc(doc, programathorDescSelectors, 100)
}
