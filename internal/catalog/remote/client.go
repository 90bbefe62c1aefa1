// Package remote содержит клиент онлайн-каталога Jamendo
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/hazadus/go-jamplayer/internal/data"
	"github.com/hazadus/go-jamplayer/internal/logs"
)

var log = logging.Logger(logs.Catalog)

const (
	// DefaultBaseURL - базовый адрес Jamendo API
	DefaultBaseURL = "https://api.jamendo.com/v3.0"
	// DefaultLimit - размер страницы по умолчанию
	DefaultLimit = 20
	// MaxLimit - максимальный размер страницы, который принимает API
	MaxLimit = 200

	defaultMaxRetries    = 3
	defaultRetryWait     = 500 * time.Millisecond
	defaultRateLimitWait = 5 * time.Second
	maxRetryAfter        = 60 * time.Second

	// Код ошибки Jamendo для неверного client_id
	codeInvalidClientID = 5
)

// Ошибки каталога
var (
	ErrUnauthorized = errors.New("неверный client_id Jamendo или доступ запрещен")
	ErrRateLimited  = errors.New("превышен лимит запросов к Jamendo")
	ErrNoClientID   = errors.New("не задан client_id Jamendo")
)

// APIError - ошибка ответа API, которую не имеет смысла повторять
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("ошибка Jamendo API %d (код %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("ошибка Jamendo API %d: %s", e.StatusCode, e.Message)
}

// Options настраивает клиент
type Options struct {
	BaseURL       string
	ClientID      string
	Timeout       time.Duration
	MaxRetries    int
	RetryWait     time.Duration // База экспоненциальной паузы для 5xx и сетевых ошибок
	RateLimitWait time.Duration // Пауза после 429 без заголовка Retry-After
	HTTPClient    *http.Client
}

// Client выполняет запросы к каталогу Jamendo
type Client struct {
	httpClient    *http.Client
	baseURL       string
	clientID      string
	maxRetries    int
	retryWait     time.Duration
	rateLimitWait time.Duration
}

// New создает клиент каталога
func New(opts Options) *Client {
	c := &Client{
		httpClient:    opts.HTTPClient,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		clientID:      opts.ClientID,
		maxRetries:    opts.MaxRetries,
		retryWait:     opts.RetryWait,
		rateLimitWait: opts.RateLimitWait,
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.retryWait <= 0 {
		c.retryWait = defaultRetryWait
	}
	if c.rateLimitWait <= 0 {
		c.rateLimitWait = defaultRateLimitWait
	}
	return c
}

// Query - параметры поиска треков
type Query struct {
	Search string
	Tags   []string
	Offset int
	Limit  int
}

// Values строит параметры запроса /tracks
func (q Query) Values(clientID string) url.Values {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	v := url.Values{}
	v.Set("client_id", clientID)
	v.Set("format", "json")
	v.Set("limit", strconv.Itoa(limit))
	v.Set("offset", strconv.Itoa(offset))
	v.Set("audioformat", "mp32")
	v.Set("imagesize", "300")
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}

	tags := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) > 0 {
		// url.Values кодирует пробел как "+", что и ожидает API
		v.Set("tags", strings.Join(tags, " "))
	}
	return v
}

// envelope - обертка ответа Jamendo
type envelope struct {
	Headers struct {
		Status       string `json:"status"`
		Code         int    `json:"code"`
		ErrorMessage string `json:"error_message"`
		ResultsCount int    `json:"results_count"`
	} `json:"headers"`
	Results []result `json:"results"`
}

// result - запись трека в ответе API
type result struct {
	ID         flexString  `json:"id"`
	Name       string      `json:"name"`
	ArtistName string      `json:"artist_name"`
	AlbumName  string      `json:"album_name"`
	Duration   json.Number `json:"duration"`
	Audio      string      `json:"audio"`
	Image      string      `json:"image"`
}

// flexString принимает идентификатор как строкой, так и числом
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (r result) track() data.Track {
	d, _ := r.Duration.Float64()
	return data.Track{
		ID:         string(r.ID),
		Name:       r.Name,
		ArtistName: r.ArtistName,
		AlbumName:  r.AlbumName,
		Duration:   d,
		Audio:      data.URIRef(r.Audio),
		Image:      r.Image,
		Source:     data.SourceRemote,
	}
}

// Tracks запрашивает страницу треков. Записи без пригодной ссылки на аудио отбрасываются.
func (c *Client) Tracks(ctx context.Context, q Query) ([]data.Track, error) {
	if c.clientID == "" {
		return nil, ErrNoClientID
	}

	fullURL := c.baseURL + "/tracks/?" + q.Values(c.clientID).Encode()

	var env envelope
	if err := c.get(ctx, fullURL, &env); err != nil {
		return nil, err
	}

	if env.Headers.Status != "" && env.Headers.Status != "success" {
		if env.Headers.Code == codeInvalidClientID {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, env.Headers.ErrorMessage)
		}
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Code:       env.Headers.Code,
			Message:    env.Headers.ErrorMessage,
		}
	}

	tracks := make([]data.Track, 0, len(env.Results))
	for _, r := range env.Results {
		t, ok := data.NormalizeTrack(r.track())
		if !ok {
			log.Debugw("трек отброшен: нет пригодной ссылки на аудио", "id", string(r.ID))
			continue
		}
		tracks = append(tracks, t)
	}

	log.Debugw("получены треки", "count", len(tracks), "offset", q.Offset, "search", q.Search)
	return tracks, nil
}

// get выполняет GET с повторами: 429 ждет дольше, 5xx и сетевые ошибки - экспоненциально
func (c *Client) get(ctx context.Context, fullURL string, out interface{}) error {
	var lastErr error
	var wait time.Duration

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Debugw("повтор запроса", "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("ошибка создания запроса: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "jamplayer/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("ошибка выполнения запроса: %w", err)
			wait = c.backoff(attempt)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("ошибка чтения ответа: %w", err)
			wait = c.backoff(attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = ErrRateLimited
			wait = c.rateLimitDelay(resp.Header.Get("Retry-After"))
			log.Warnw("превышен лимит запросов", "wait", wait)
			continue
		case resp.StatusCode >= 500:
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
			wait = c.backoff(attempt)
			continue
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w (HTTP %d)", ErrUnauthorized, resp.StatusCode)
		case resp.StatusCode >= 300:
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("ошибка разбора ответа: %w", err)
		}
		return nil
	}

	if errors.Is(lastErr, ErrRateLimited) {
		return lastErr
	}
	return fmt.Errorf("запрос не удался после %d повторов: %w", c.maxRetries, lastErr)
}

func (c *Client) backoff(attempt int) time.Duration {
	return c.retryWait * time.Duration(1<<attempt)
}

// rateLimitDelay учитывает Retry-After в секундах или в формате HTTP-даты
func (c *Client) rateLimitDelay(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return c.rateLimitWait
	}
	var d time.Duration
	if secs, err := strconv.Atoi(header); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(header); err == nil {
		d = time.Until(at)
	} else {
		return c.rateLimitWait
	}
	if d < 0 {
		d = 0
	}
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}
