package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/vagasjr/vagasjr/internal/classify"
	"github.com/vagasjr/vagasjr/internal/fetch"
	"github.com/vagasjr/vagasjr/internal/model"
	"github.com/vagasjr/vagasjr/internal/ratelimit"
)

// companyPrefixRe captures the "[Company] Title" convention the issue boards
// use.
var companyPrefixRe = regexp.MustCompile(`^\[([^\]]+)\]\s*`)

type githubRepo struct {
	Owner string
	Repo  string
	Name  string
}

// GitHub collects postings published as open issues on community job boards.
// Issues are junior-focused by convention, so the level fallback is JUNIOR.
type GitHub struct {
	store   model.JobStore
	client  *fetch.Client
	logger  *slog.Logger
	apiBase string
	repos   []githubRepo
}

type githubIssue struct {
	Number      int           `json:"number"`
	Title       string        `json:"title"`
	Body        string        `json:"body"`
	HTMLURL     string        `json:"html_url"`
	CreatedAt   time.Time     `json:"created_at"`
	Labels      []githubLabel `json:"labels"`
	PullRequest *struct{}     `json:"pull_request,omitempty"`
}

type githubLabel struct {
	Name string `json:"name"`
}

// NewGitHub builds the issue-board collector. token is optional; when set it
// raises the API quota.
func NewGitHub(store model.JobStore, limiter *ratelimit.SourceLimiter, delay time.Duration, token string, logger *slog.Logger) *GitHub {
	opts := []fetch.Option{fetch.WithHeader("Accept", "application/vnd.github+json")}
	if token != "" {
		opts = append(opts, fetch.WithHeader("Authorization", "Bearer "+token))
	}
	return &GitHub{
		store:   store,
		client:  fetch.NewClient("GitHub", limiter, delay, logger, opts...),
		logger:  logger.With("collector", "GitHub"),
		apiBase: "https://api.github.com",
		repos: []githubRepo{
			{Owner: "backend-br", Repo: "vagas", Name: "Backend BR"},
			{Owner: "frontendbr", Repo: "vagas", Name: "Frontend BR"},
			{Owner: "react-brasil", Repo: "vagas", Name: "React Brasil"},
		},
	}
}

func (g *GitHub) Name() string { return "GitHub" }

// Scrape walks every configured repo. A repo that fails entirely adds one
// entry to Errors and the remaining repos still run.
func (g *GitHub) Scrape(ctx context.Context) model.ScraperResult {
	result := model.ScraperResult{Source: g.Name(), Errors: []string{}}

	for _, repo := range g.repos {
		if err := g.scrapeRepo(ctx, repo, &result); err != nil {
			g.logger.Error("repo scrape failed", "repo", repo.Owner+"/"+repo.Repo, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", repo.Owner, repo.Repo, err))
		}
	}

	g.logger.Info("scrape finished", "found", result.JobsFound, "added", result.JobsAdded, "errors", len(result.Errors))
	return result
}

func (g *GitHub) scrapeRepo(ctx context.Context, repo githubRepo, result *model.ScraperResult) error {
	source, err := g.store.GetOrCreateSource(ctx,
		"GitHub - "+repo.Name,
		fmt.Sprintf("https://github.com/%s/%s/issues", repo.Owner, repo.Repo),
	)
	if err != nil {
		return fmt.Errorf("registering source: %w", err)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/issues?%s", g.apiBase, repo.Owner, repo.Repo,
		url.Values{"state": {"open"}, "per_page": {"100"}}.Encode())

	var issues []githubIssue
	if err := g.client.GetJSON(ctx, endpoint, &issues); err != nil {
		return err
	}
	result.JobsFound += len(issues)

	for _, issue := range issues {
		if issue.PullRequest != nil {
			continue
		}
		job := g.parseIssue(issue, source.ID)
		created, err := g.store.UpsertByURL(ctx, job)
		if err != nil {
			g.logger.Warn("upsert failed", "url", issue.HTMLURL, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("issue #%d: %v", issue.Number, err))
			continue
		}
		if created != nil {
			result.JobsAdded++
		}
	}
	return nil
}

func (g *GitHub) parseIssue(issue githubIssue, sourceID string) model.JobPosting {
	title := issue.Title
	company := ""
	if m := companyPrefixRe.FindStringSubmatch(title); m != nil {
		company = strings.TrimSpace(m[1])
		title = strings.TrimSpace(companyPrefixRe.ReplaceAllString(title, ""))
	}

	var labels []string
	for _, l := range issue.Labels {
		labels = append(labels, l.Name)
	}
	labelText := strings.Join(labels, " ")
	fullText := issue.Title + " " + issue.Body + " " + labelText

	postedAt := issue.CreatedAt
	return model.JobPosting{
		Title:       title,
		Company:     company,
		Location:    classify.ExtractLocation(fullText),
		Description: truncate(issue.Body, model.MaxDescriptionLen),
		URL:         issue.HTMLURL,
		Salary:      classify.ExtractSalary(issue.Body),
		Level:       classify.DetectLevel(fullText, model.LevelJunior),
		Category:    classify.DetectCategory(fullText),
		Remote:      classify.DetectRemote(fullText),
		SourceID:    sourceID,
		Tags: classify.MergeTags(compactTagLimit,
			classify.ExtractTags(issue.Title+" "+issue.Body),
			labels,
		),
		PostedAt: &postedAt,
	}
}
