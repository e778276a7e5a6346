package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/ports"
)

const (
	minExtractPosts = 1
	maxExtractPosts = 100
)

// IngestReport is the outcome of one extraction run.
type IngestReport struct {
	domain.BatchReport
	Source domain.Source
	Found  int
}

// Added is the number of new posts stored.
func (r IngestReport) Added() int { return r.Succeeded }

// Duplicates is the number of candidates skipped as already stored.
func (r IngestReport) Duplicates() int { return r.Skipped }

// Ingestor registers sources and turns their content into stored posts.
type Ingestor struct {
	sources   ports.SourceRepository
	posts     ports.PostRepository
	extractor ports.Extractor
	logger    *slog.Logger
}

// NewIngestor wires the extraction chain with storage.
func NewIngestor(sources ports.SourceRepository, posts ports.PostRepository, extractor ports.Extractor, log *slog.Logger) *Ingestor {
	return &Ingestor{sources: sources, posts: posts, extractor: extractor, logger: log}
}

// AddSource validates rawURL and registers it. An empty name falls back to
// the URL host.
func (i *Ingestor) AddSource(ctx context.Context, rawURL, name string) (domain.Source, error) {
	rawURL = strings.TrimSpace(rawURL)
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return domain.Source{}, domain.Invalid("url", "invalid source url %q", rawURL)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = parsed.Host
	}
	return i.sources.AddSource(ctx, rawURL, name)
}

// Ingest extracts up to maxPosts candidates from the source and stores the
// ones that are not duplicates, in extraction order.
func (i *Ingestor) Ingest(ctx context.Context, sourceID string, maxPosts int) (IngestReport, error) {
	report := IngestReport{BatchReport: domain.BatchReport{Operation: "extract"}}
	if maxPosts < minExtractPosts || maxPosts > maxExtractPosts {
		return report, domain.Invalid("max_posts", "must be between %d and %d, got %d", minExtractPosts, maxExtractPosts, maxPosts)
	}

	source, err := i.sources.GetSource(ctx, sourceID)
	if err != nil {
		return report, fmt.Errorf("load source: %w", err)
	}
	report.Source = source

	candidates := i.extractor.Extract(ctx, source.URL, maxPosts)
	report.Found = len(candidates)
	i.info("candidates extracted", "source", source.Name, "count", len(candidates))

	for _, candidate := range candidates {
		duplicate, err := i.posts.IsDuplicate(ctx, candidate.Title, candidate.URL)
		if err != nil {
			i.warn("duplicate check failed", "url", candidate.URL, "error", err)
			report.Failure("", candidate.Title, err)
			continue
		}
		if duplicate {
			report.Skip(candidate.Title, domain.ErrDuplicate.Error())
			continue
		}

		id, err := i.posts.AddPost(ctx, source.ID, candidate)
		if err != nil {
			i.warn("store post failed", "url", candidate.URL, "error", err)
			report.Failure("", candidate.Title, err)
			continue
		}
		report.Success(id, candidate.Title, candidate.URL)
	}

	i.info("extraction finished", "source", source.Name, "added", report.Added(), "duplicates", report.Duplicates(), "failed", report.Failed)
	return report, nil
}

// IngestAll runs Ingest for every registered source. A failing source is
// logged and does not stop the others.
func (i *Ingestor) IngestAll(ctx context.Context, maxPosts int) ([]IngestReport, error) {
	sources, err := i.sources.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	reports := make([]IngestReport, 0, len(sources))
	for _, source := range sources {
		report, err := i.Ingest(ctx, source.ID, maxPosts)
		if err != nil {
			i.warn("source ingest failed", "source", source.Name, "error", err)
			report.Source = source
			report.Failure("", source.Name, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (i *Ingestor) info(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Info(msg, args...)
	}
}

func (i *Ingestor) warn(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Warn(msg, args...)
	}
}
