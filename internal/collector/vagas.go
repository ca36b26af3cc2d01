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

const vagasOrigin = "https://www.vagas.com.br"

type vagasSearch struct {
	Path  string
	Name  string
	Level model.Level // fallback when the posting text has no marker
}

var vagasDescSelectors = []string{
	".job-description__text",
	".texto-vaga",
	"[data-testid='job-detail-description']",
	".vaga-descricao",
}

// Vagas collects postings from vagas.com.br search pages. The board lists
// every profession, so candidates must pass the developer-keyword gate
// before being stored.
type Vagas struct {
	store    model.JobStore
	client   *fetch.Client
	logger   *slog.Logger
	origin   string
	searches []vagasSearch
}

func NewVagas(store model.JobStore, limiter *ratelimit.SourceLimiter, delay time.Duration, logger *slog.Logger) *Vagas {
	return &Vagas{
		store:  store,
		client: fetch.NewClient("Vagas", limiter, delay, logger),
		logger: logger.With("collector", "Vagas"),
		origin: vagasOrigin,
		searches: []vagasSearch{
			{Path: "/vagas-de-desenvolvedor-junior", Name: "desenvolvedor junior", Level: model.LevelJunior},
			{Path: "/vagas-de-programador-junior", Name: "programador junior", Level: model.LevelJunior},
			{Path: "/vagas-de-estagio-desenvolvimento", Name: "estagio desenvolvimento", Level: model.LevelInternship},
			{Path: "/vagas-de-estagio-programacao", Name: "estagio programacao", Level: model.LevelInternship},
			{Path: "/vagas-de-desenvolvedor-trainee", Name: "desenvolvedor trainee", Level: model.LevelInternship},
		},
	}
}

func (v *Vagas) Name() string { return "Vagas.com.br" }

func (v *Vagas) Scrape(ctx context.Context) model.ScraperResult {
	result := model.ScraperResult{Source: v.Name(), Errors: []string{}}

	source, err := v.store.GetOrCreateSource(ctx, "Vagas.com.br", v.origin)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("registering source: %v", err))
		return result
	}

	seen := make(map[string]bool)
	for _, search := range v.searches {
		if err := v.scrapeSearch(ctx, search, source.ID, seen, &result); err != nil {
			v.logger.Error("search failed", "search", search.Name, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("search %q: %v", search.Name, err))
		}
	}

	v.logger.Info("scrape finished", "found", result.JobsFound, "added", result.JobsAdded, "errors", len(result.Errors))
	return result
}

type vagasCard struct {
	title    string
	company  string
	location string
	summary  string
	url      string
}

func (v *Vagas) scrapeSearch(ctx context.Context, search vagasSearch, sourceID string, seen map[string]bool, result *model.ScraperResult) error {
	page, err := v.client.GetText(ctx, v.origin+search.Path)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return fmt.Errorf("parsing search page: %w", err)
	}

	cards := v.extractCards(doc)
	result.JobsFound += len(cards)

	for _, card := range cards {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := v.processCard(ctx, card, search, sourceID, seen, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("search %q item: %v", search.Name, err))
		}
	}
	return nil
}

// extractCards tries the dedicated result-link markup first, then the older
// list layout.
func (v *Vagas) extractCards(doc *goquery.Document) []vagasCard {
	var cards []vagasCard

	doc.Find("a.link-detalhes-vaga").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		item := link.Closest("li")
		if item.Length() == 0 {
			item = link.Parent()
		}
		cards = append(cards, vagasCard{
			title:    strings.TrimSpace(link.Text()),
			company:  firstText(item, ".emprVaga", ".empresa"),
			location: firstText(item, ".vaga-local", ".local"),
			summary:  firstText(item, ".detalhes", ".descricao"),
			url:      absoluteURL(v.origin, href),
		})
	})
	if len(cards) > 0 {
		return cards
	}

	doc.Find(".listagem-vagas li, .resultado-busca-item").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("a").First()
		href, _ := link.Attr("href")
		if href == "" {
			return
		}
		title := firstText(item, "h2", ".cargo")
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		cards = append(cards, vagasCard{
			title:    title,
			company:  firstText(item, ".empresa", ".emprVaga"),
			location: firstText(item, ".local", ".vaga-local"),
			summary:  firstText(item, ".descricao", ".detalhes"),
			url:      absoluteURL(v.origin, href),
		})
	})
	return cards
}

func (v *Vagas) processCard(ctx context.Context, card vagasCard, search vagasSearch, sourceID string, seen map[string]bool, result *model.ScraperResult) error {
	if card.title == "" || card.url == "" || seen[card.url] {
		return nil
	}
	seen[card.url] = true

	if !classify.IsDevJob(card.title + " " + card.summary) {
		return nil
	}

	existing, err := v.store.FindByURL(ctx, card.url)
	if err != nil {
		return fmt.Errorf("checking %s: %w", card.url, err)
	}
	if existing != nil {
		return nil
	}

	description := v.fetchDescription(ctx, card.url)
	if description == "" {
		description = card.summary
	}

	fullText := card.title + " " + description
	level := classify.DetectLevel(fullText, search.Level)

	job := model.JobPosting{
		Title:       card.title,
		Company:     card.company,
		Location:    card.location,
		Description: truncate(description, model.MaxDescriptionLen),
		URL:         card.url,
		Salary:      classify.ExtractSalary(description),
		Level:       level,
		Category:    classify.DetectCategory(fullText),
		Remote:      classify.DetectRemote(card.title, card.location, description),
		SourceID:    sourceID,
		Tags:        classify.MergeTags(model.MaxTags, classify.ExtractTags(fullText)),
	}

	created, err := v.store.UpsertByURL(ctx, job)
	if err != nil {
		return fmt.Errorf("upserting %s: %w", card.url, err)
	}
	if created != nil {
		result.JobsAdded++
	}
	return nil
}

func (v *Vagas) fetchDescription(ctx context.Context, jobURL string) string {
	page, err := v.client.GetText(ctx, jobURL)
	if err != nil {
		v.logger.Debug("detail fetch failed", "url", jobURL, "error", err)
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	return descriptionFromDoc(doc, vagasDescSelectors, 100)
}
