package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"order-lookup/config"
	"order-lookup/internal/models"
	"order-lookup/internal/util"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	maxBodyBytes = 32 << 20
)

// ErrRemote is returned when the script answers with an error envelope
var ErrRemote = errors.New("sheet script error")

// Client talks to the spreadsheet's web script
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     *zap.Logger
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type announcementRecord struct {
	ID      any    `json:"id"`
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Likes   any    `json:"likes"`
}

// NewClient creates a sheet client with an instrumented transport
func NewClient(cfg config.SheetConfig) (*Client, error) {
	base, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid sheet api url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		baseURL: base,
		logger:  util.GetLogger(),
	}, nil
}

// NewClientWithHTTP creates a sheet client around an existing http.Client
func NewClientWithHTTP(apiURL string, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid sheet api url: %w", err)
	}
	return &Client{httpClient: httpClient, baseURL: base, logger: util.GetLogger()}, nil
}

// FetchRows returns order rows. An empty query fetches the whole table.
func (c *Client) FetchRows(ctx context.Context, query string) ([]models.Row, error) {
	ctx, span := util.StartSpan(ctx, "SheetClient.FetchRows")
	defer span.End()

	params := url.Values{}
	if query = strings.TrimSpace(query); query != "" {
		params.Set("phone", query)
	}

	env, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}
	if env.Status != statusSuccess || len(env.Data) == 0 {
		return []models.Row{}, nil
	}

	var rows []models.Row
	if err := decodeNumbers(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

// FetchAnnouncements returns the storefront announcements in sheet order
func (c *Client) FetchAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	ctx, span := util.StartSpan(ctx, "SheetClient.FetchAnnouncements")
	defer span.End()

	env, err := c.get(ctx, url.Values{"action": {"announcements"}})
	if err != nil {
		return nil, err
	}
	if env.Status != statusSuccess || len(env.Data) == 0 {
		return []models.Announcement{}, nil
	}

	var records []announcementRecord
	if err := decodeNumbers(env.Data, &records); err != nil {
		return nil, fmt.Errorf("decode announcements: %w", err)
	}

	out := make([]models.Announcement, 0, len(records))
	for _, r := range records {
		out = append(out, models.Announcement{
			ID:      anyString(r.ID),
			Date:    r.Date,
			Title:   r.Title,
			Content: r.Content,
			Likes:   anyInt(r.Likes),
		})
	}
	return out, nil
}

// IncrementLike asks the script to add one like to an announcement
func (c *Client) IncrementLike(ctx context.Context, announcementID string) error {
	ctx, span := util.StartSpan(ctx, "SheetClient.IncrementLike")
	defer span.End()

	_, err := c.get(ctx, url.Values{"action": {"like"}, "id": {announcementID}})
	return err
}

func (c *Client) get(ctx context.Context, params url.Values) (*envelope, error) {
	u := *c.baseURL
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	util.RowSourceLatency.WithLabelValues("sheet").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("call sheet script: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("sheet script status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if env.Status == statusError {
		msg := env.Message
		if msg == "" {
			msg = "unknown error"
		}
		c.logger.Warn("Sheet script returned error", zap.String("message", msg))
		return nil, fmt.Errorf("%w: %s", ErrRemote, msg)
	}

	return &env, nil
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func anyString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case json.Number:
		return c.String()
	default:
		return fmt.Sprint(c)
	}
}

func anyInt(v any) int {
	switch c := v.(type) {
	case json.Number:
		if n, err := c.Int64(); err == nil {
			return int(n)
		}
		if f, err := c.Float64(); err == nil {
			return int(f)
		}
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(c), "%d", &n); err == nil {
			return n
		}
	}
	return 0
}
