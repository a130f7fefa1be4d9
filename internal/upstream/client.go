// Package upstream is the typed HTTP client over the marketplace's read-only
// API. Every call acquires a slot from the shared rate limiter before
// issuing a request, retries transient failures with jittered exponential
// backoff via sethvargo/go-retry, and returns domain types built from
// JSON shapes that tolerate unknown upstream fields.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/ratelimit"
)

// setSlugSuffix identifies composite ("prime set") items within the full
// catalog returned by /items.
const setSlugSuffix = "_prime_set"

// onlineStatuses are the user.status values the upstream reports for sellers
// and buyers currently reachable for trade.
var onlineStatuses = map[string]bool{"ingame": true, "online": true}

// Config configures Client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	BackoffBase  time.Duration
}

// Client implements domain.UpstreamClient.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *ratelimit.Limiter
	maxRetries  uint64
	backoffBase time.Duration
	logger      *slog.Logger
}

// New creates a Client that rate-limits every call through limiter.
func New(cfg Config, limiter *ratelimit.Limiter, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     limiter,
		maxRetries:  uint64(maxRetries),
		backoffBase: backoffBase,
		logger:      logger.With(slog.String("component", "upstream")),
	}
}

var _ domain.UpstreamClient = (*Client)(nil)

// ListSets fetches the catalog index and returns only the composite "set"
// items within it.
func (c *Client) ListSets(ctx context.Context) ([]domain.SetSummary, error) {
	body, err := c.get(ctx, "list_sets", "/items")
	if err != nil {
		return nil, err
	}

	var resp itemListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("upstream: list_sets: %w", domain.NewCodedError(domain.KindParse, err.Error()))
	}

	sets := make([]domain.SetSummary, 0, len(resp.Data))
	for _, it := range resp.Data {
		if !strings.HasSuffix(it.Slug, setSlugSuffix) {
			continue
		}
		sets = append(sets, domain.SetSummary{
			Slug: it.Slug,
			Name: displayName(it),
		})
	}
	return sets, nil
}

// SetParts fetches the full decomposition of one set: its own detail (for
// the display name and the slugs of its parts), then the detail of every
// part (for its quantity-in-set and display name).
func (c *Client) SetParts(ctx context.Context, slug string) (domain.Set, error) {
	setBody, err := c.get(ctx, "set_parts", "/item/"+slug)
	if err != nil {
		return domain.Set{}, err
	}

	var setResp itemDetailResponse
	if err := json.Unmarshal(setBody, &setResp); err != nil {
		return domain.Set{}, fmt.Errorf("upstream: set_parts %s: %w", slug, domain.NewCodedError(domain.KindParse, err.Error()))
	}

	set := domain.Set{
		Slug: slug,
		Name: displayName(setResp.Data),
	}

	for _, partSlug := range setResp.Data.SetParts {
		if partSlug == setResp.Data.ID || partSlug == slug {
			continue
		}
		part, err := c.fetchPart(ctx, partSlug)
		if err != nil {
			return domain.Set{}, err
		}
		set.Parts = append(set.Parts, part)
	}

	return set, nil
}

func (c *Client) fetchPart(ctx context.Context, partSlug string) (domain.Part, error) {
	body, err := c.get(ctx, "part_quantity", "/item/"+partSlug)
	if err != nil {
		return domain.Part{}, err
	}
	var resp itemDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Part{}, fmt.Errorf("upstream: part_quantity %s: %w", partSlug, domain.NewCodedError(domain.KindParse, err.Error()))
	}
	qty := resp.Data.QuantityInSet
	if qty <= 0 {
		qty = 1
	}
	name := displayName(resp.Data)
	if resp.Data.Slug == "" {
		resp.Data.Slug = partSlug
		name = displayName(resp.Data)
	}
	return domain.Part{Slug: partSlug, Name: name, Quantity: qty}, nil
}

// TopOrders fetches the best online orders on each side of the book for one
// item (a set or a part).
func (c *Client) TopOrders(ctx context.Context, slug string) (domain.OrderBook, error) {
	body, err := c.get(ctx, "top_orders", "/orders/item/"+slug+"/top")
	if err != nil {
		return domain.OrderBook{}, err
	}

	var resp ordersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("upstream: top_orders %s: %w", slug, domain.NewCodedError(domain.KindParse, err.Error()))
	}

	book := domain.OrderBook{
		ItemSlug:   slug,
		SellOrders: toOrders(resp.Data.Sell),
		BuyOrders:  toOrders(resp.Data.Buy),
	}
	sortAscending(book.SellOrders)
	sortDescending(book.BuyOrders)
	return book, nil
}

// Statistics48h fetches the 48-hour trading statistics series for one item.
func (c *Client) Statistics48h(ctx context.Context, slug string) (domain.Statistics48h, error) {
	body, err := c.get(ctx, "statistics_48h", "/items/"+slug+"/statistics")
	if err != nil {
		return domain.Statistics48h{}, err
	}

	var resp statisticsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Statistics48h{}, fmt.Errorf("upstream: statistics_48h %s: %w", slug, domain.NewCodedError(domain.KindParse, err.Error()))
	}

	points := make([]domain.StatPoint, 0, len(resp.Payload.StatisticsClosed.Hours48))
	for _, p := range resp.Payload.StatisticsClosed.Hours48 {
		ts, err := time.Parse(time.RFC3339, p.Datetime)
		if err != nil {
			continue
		}
		points = append(points, domain.StatPoint{
			Timestamp: ts,
			Median:    p.Median,
			Volume:    p.Volume,
			MovingAvg: p.AvgPrice,
		})
	}
	return domain.Statistics48h{ItemSlug: slug, Points: points}, nil
}

// get performs one rate-limited GET with retry/backoff, returning the raw
// response body on a 200.
func (c *Client) get(ctx context.Context, op, path string) ([]byte, error) {
	url := c.baseURL + path

	b := retry.NewExponential(c.backoffBase)
	b = retry.WithMaxRetries(c.maxRetries, b)
	b = retry.WithJitterPercent(20, b)

	var body []byte
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := c.limiter.Acquire(ctx); err != nil {
			return fmt.Errorf("upstream: %s: %w", op, domain.NewCodedError(domain.KindCancelled, err.Error()))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("upstream: %s: build request: %w", op, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return classifyNetErr(op, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return classifyNetErr(op, err)
		}

		if resp.StatusCode != http.StatusOK {
			return classifyStatus(op, resp.StatusCode)
		}

		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func displayName(it item) string {
	if it.I18n != nil && it.I18n.En.Name != "" {
		return it.I18n.En.Name
	}
	return titleCaseSlug(it.Slug)
}

func titleCaseSlug(slug string) string {
	parts := strings.Split(slug, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func toOrders(entries []order) []domain.Order {
	out := make([]domain.Order, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.Order{
			Price:    e.Platinum,
			Quantity: int(e.Quantity),
			Online:   onlineStatuses[strings.ToLower(e.User.Status)],
		})
	}
	return out
}

func sortAscending(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].Price < orders[j].Price })
}

func sortDescending(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].Price > orders[j].Price })
}
