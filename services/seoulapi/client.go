package seoulapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sourcegraph/conc/pool"
)

const (
	defaultTimeout  = 30 * time.Second
	pageConcurrency = 4
	pageRetries     = 3
)

// EventRow is one raw row from the Seoul cultural event open API. Every
// field arrives as a string; absent fields are empty. Only TITLE is
// guaranteed by upstream.
type EventRow struct {
	Codename   string `json:"CODENAME"`
	GuName     string `json:"GUNAME"`
	Title      string `json:"TITLE"`
	DateText   string `json:"DATE"`
	Place      string `json:"PLACE"`
	OrgName    string `json:"ORG_NAME"`
	UseTarget  string `json:"USE_TRGT"`
	UseFee     string `json:"USE_FEE"`
	Inquiry    string `json:"INQUIRY"`
	Player     string `json:"PLAYER"`
	Program    string `json:"PROGRAM"`
	EtcDesc    string `json:"ETC_DESC"`
	OrgLink    string `json:"ORG_LINK"`
	MainImg    string `json:"MAIN_IMG"`
	RgstDate   string `json:"RGSTDATE"`
	TicketType string `json:"TICKET"`
	StartDate  string `json:"STRTDATE"`
	EndDate    string `json:"END_DATE"`
	ThemeCode  string `json:"THEMECODE"`
	Lot        string `json:"LOT"`
	Lat        string `json:"LAT"`
	IsFree     string `json:"IS_FREE"`
	HmpgAddr   string `json:"HMPG_ADDR"`
	ProTime    string `json:"PRO_TIME"`
}

// pageEnvelope is the inner payload of one paged response.
type pageEnvelope struct {
	ListTotalCount json.Number `json:"list_total_count"`
	Row            []EventRow  `json:"row"`
}

// Client fetches cultural event rows from the Seoul open data portal.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	service    string
	pageSize   int
}

// NewClient creates a Seoul open API client. service is the dataset name,
// normally "culturalEventInfo".
func NewClient(baseURL, apiKey, service string, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		service:    service,
		pageSize:   pageSize,
	}
}

// FetchPage fetches rows [start, end] (1-based, inclusive) and returns them
// together with the total row count reported by upstream. Never retried:
// interactive callers surface the failure and may re-invoke manually.
func (c *Client) FetchPage(ctx context.Context, start, end int) ([]EventRow, int, error) {
	url := fmt.Sprintf("%s/%s/json/%s/%d/%d", c.baseURL, c.apiKey, c.service, start, end)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("seoul api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("seoul api status %s: %s", resp.Status, string(body))
	}

	// The envelope is keyed by the service name. Older responses used the
	// literal "culturalEventInfo" key regardless of the requested service.
	var outer map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&outer); err != nil {
		return nil, 0, fmt.Errorf("decode seoul api response (status %d): %w", resp.StatusCode, err)
	}
	raw, ok := outer[c.service]
	if !ok {
		raw, ok = outer["culturalEventInfo"]
	}
	if !ok {
		return nil, 0, fmt.Errorf("seoul api response missing %q payload (status %d)", c.service, resp.StatusCode)
	}

	var page pageEnvelope
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, 0, fmt.Errorf("decode seoul api payload (status %d): %w", resp.StatusCode, err)
	}

	total, err := page.ListTotalCount.Int64()
	if err != nil {
		log.Printf("[seoulapi] unexpected list_total_count=%q, falling back to row count", page.ListTotalCount)
		total = int64(len(page.Row))
	}
	return page.Row, int(total), nil
}

// FetchAll fetches every row, page by page. The first page establishes the
// total; remaining pages are fetched with bounded concurrency, each wrapped
// in a short retry since this path serves the background sync rather than
// an interactive request. Row order follows upstream page order.
func (c *Client) FetchAll(ctx context.Context) ([]EventRow, error) {
	first, total, err := c.FetchPage(ctx, 1, c.pageSize)
	if err != nil {
		return nil, err
	}
	log.Printf("[seoulapi] fetched %d rows (total=%d)", len(first), total)
	if len(first) >= total {
		return first, nil
	}

	type numberedPage struct {
		start int
		rows  []EventRow
	}

	var (
		mu    sync.Mutex
		pages []numberedPage
	)

	p := pool.New().WithContext(ctx).WithMaxGoroutines(pageConcurrency).WithCancelOnError()
	for start := c.pageSize + 1; start <= total; start += c.pageSize {
		start := start
		p.Go(func(ctx context.Context) error {
			end := start + c.pageSize - 1
			if end > total {
				end = total
			}
			var rows []EventRow
			err := retry.Do(
				func() error {
					var ferr error
					rows, _, ferr = c.FetchPage(ctx, start, end)
					return ferr
				},
				retry.Attempts(pageRetries),
				retry.Context(ctx),
				retry.LastErrorOnly(true),
			)
			if err != nil {
				return fmt.Errorf("fetch rows %d-%d: %w", start, end, err)
			}
			mu.Lock()
			pages = append(pages, numberedPage{start: start, rows: rows})
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].start < pages[j].start })
	all := first
	for _, pg := range pages {
		all = append(all, pg.rows...)
	}
	log.Printf("[seoulapi] fetched %d rows across %d pages", len(all), 1+len(pages))
	return all, nil
}
