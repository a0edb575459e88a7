package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/ritualhelper/defer-sync/internal/httpclient"
	"github.com/ritualhelper/defer-sync/internal/otel"
	"github.com/ritualhelper/defer-sync/internal/ratelimit"
	"github.com/ritualhelper/defer-sync/internal/telemetry"
)

const (
	// DefaultPerPage is the page size requested from the listing endpoint
	DefaultPerPage = 250

	// DefaultMaxAttempts is the number of tries per page before it counts as failed
	DefaultMaxAttempts = 2

	defaultRetryInterval = 250 * time.Millisecond

	// progress is logged on the first page, the last page and every progressEvery pages
	progressEvery = 5
)

// Fetcher retrieves every item of one category
//
//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks github.com/ritualhelper/defer-sync/internal/pricing Fetcher
type Fetcher interface {
	FetchAll(ctx context.Context, category string) ([]PricedItem, error)
}

// PagedFetcher walks the paginated listing of a category, one page at a time
type PagedFetcher struct {
	client        httpclient.Client
	limiter       *ratelimit.Limiter
	baseURL       string
	league        string
	perPage       int
	maxAttempts   uint
	retryInterval time.Duration
	metrics       *telemetry.FetchMetrics
	tracer        trace.Tracer
}

// Option configures a PagedFetcher
type Option func(*PagedFetcher)

// WithPerPage overrides the requested page size
func WithPerPage(n int) Option {
	return func(f *PagedFetcher) {
		if n > 0 {
			f.perPage = n
		}
	}
}

// WithMaxAttempts sets how many times a page is tried before giving up
func WithMaxAttempts(n int) Option {
	return func(f *PagedFetcher) {
		if n > 0 {
			f.maxAttempts = uint(n)
		}
	}
}

// WithRetryInterval sets the initial backoff between attempts of the same page
func WithRetryInterval(d time.Duration) Option {
	return func(f *PagedFetcher) {
		if d > 0 {
			f.retryInterval = d
		}
	}
}

// WithFetchMetrics records page outcomes
func WithFetchMetrics(m *telemetry.FetchMetrics) Option {
	return func(f *PagedFetcher) {
		f.metrics = m
	}
}

// WithTracer enables a span per category fetch
func WithTracer(t trace.Tracer) Option {
	return func(f *PagedFetcher) {
		f.tracer = t
	}
}

// NewPagedFetcher creates a fetcher for one league. The limiter is shared with
// every other fetcher in the process.
func NewPagedFetcher(
	client httpclient.Client,
	limiter *ratelimit.Limiter,
	baseURL, league string,
	opts ...Option,
) *PagedFetcher {
	f := &PagedFetcher{
		client:        client,
		limiter:       limiter,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		league:        league,
		perPage:       DefaultPerPage,
		maxAttempts:   DefaultMaxAttempts,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// League returns the league this fetcher queries
func (f *PagedFetcher) League() string {
	return f.league
}

// BaseURL returns the API root this fetcher queries
func (f *PagedFetcher) BaseURL() string {
	return f.baseURL
}

// FetchAll downloads all pages of category. A failure on page 1 is returned
// as a *FetchError with no items. A failure on a later page ends the walk: the
// items gathered so far are returned together with a *TruncatedError.
func (f *PagedFetcher) FetchAll(ctx context.Context, category string) ([]PricedItem, error) {
	ctx, span := otel.StartSpan(ctx, f.tracer, "pricing.FetchAll",
		trace.WithAttributes(
			otel.AttrCategory.String(category),
			otel.AttrLeague.String(f.league),
		),
	)
	defer span.End()

	start := time.Now()
	slog.Info("Starting price download", "category", category, "league", f.league)

	var (
		items     []PricedItem
		truncated error
	)
	for page := 1; ; page++ {
		env, err := f.fetchPage(ctx, category, page)
		f.metrics.RecordPage(ctx, category, err == nil)
		if err != nil {
			if page == 1 {
				fetchErr := &FetchError{Category: category, Page: page, Err: err}
				slog.Error("Price download failed",
					"category", category,
					"page", page,
					"error", err)
				otel.RecordError(span, fetchErr)
				return nil, fetchErr
			}
			slog.Warn("Price download truncated",
				"category", category,
				"page", page,
				"items", len(items),
				"error", err)
			truncated = &TruncatedError{Category: category, Page: page, Items: len(items), Err: err}
			break
		}

		if page == 1 {
			slog.Debug("Listing size reported",
				"category", category,
				"pages", env.Pages,
				"total", env.Total)
		}

		if len(env.Items) == 0 {
			if page == 1 {
				slog.Info("No items listed", "category", category)
			}
			break
		}

		for _, it := range env.Items {
			items = append(items, it.toPricedItem(category))
		}

		last := env.CurrentPage >= env.Pages || page >= env.Pages
		if page == 1 || page%progressEvery == 0 || last {
			slog.Info("Downloaded page",
				"category", category,
				"page", page,
				"pages", env.Pages,
				"items", len(env.Items))
		}
		if last {
			break
		}
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(items)))
	if truncated != nil {
		otel.RecordError(span, truncated)
		return items, truncated
	}
	slog.Info("Finished price download",
		"category", category,
		"items", len(items),
		"duration", time.Since(start).String())
	return items, nil
}

// fetchPage takes a rate limit turn and requests one page, retrying transient
// failures. Every attempt takes its own turn.
func (f *PagedFetcher) fetchPage(ctx context.Context, category string, page int) (*pageEnvelope, error) {
	pageURL := f.pageURL(category, page)

	operation := func() (*pageEnvelope, error) {
		if err := f.limiter.WaitTurn(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		body, err := f.client.Get(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil || !isRetryable(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}

		env, err := decodePage(body)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return env, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retryInterval

	env, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(f.maxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Retrying page",
				"category", category,
				"page", page,
				"retry_in", next.String(),
				"error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}
	return env, nil
}

func (f *PagedFetcher) pageURL(category string, page int) string {
	return fmt.Sprintf("%s/items/currency/%s?league=%s&page=%d&perPage=%d",
		f.baseURL, url.PathEscape(category), escapeQuery(f.league), page, f.perPage)
}

// escapeQuery percent-encodes spaces as %20 rather than '+'
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// isRetryable treats HTTP 429/5xx and transport failures as transient
func isRetryable(err error) bool {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return true
}
