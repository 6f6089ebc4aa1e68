package store

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/hire-labor/internal/registry"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	userAgent       = "spigell/hire-labor"
)

// itemResponse is one page of a remote worker listing. Pages are zero-based.
type itemResponse struct {
	Items   []map[string]any `json:"items"`
	Found   int              `json:"found"`
	Pages   int              `json:"pages"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// HTTPStore reads workers from a paged JSON endpoint.
type HTTPStore struct {
	URL        string
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

func NewHTTP(url, token string, logger *zap.Logger) *HTTPStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPStore{
		URL:   url,
		token: token,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// FetchAll requests every page and decodes the items into records. Numeric ids
// and string flags are accepted.
func (s *HTTPStore) FetchAll(ctx context.Context) ([]registry.RawRecord, error) {
	var items []map[string]any

	response, err := s.getPage(ctx, 0)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("got workers page", zap.Int("pages", response.Pages), zap.Int("found", response.Found))
	items = append(items, response.Items...)

	for response.Page < response.Pages-1 {
		next := response.Page + 1
		s.logger.Debug("additional request needed", zap.Int("page", next), zap.Int("pages", response.Pages))

		response, err = s.getPage(ctx, next)
		if err != nil {
			return nil, err
		}
		if response.Page != next {
			return nil, fmt.Errorf("requested page %d, got page %d", next, response.Page)
		}
		items = append(items, response.Items...)
	}

	records := make([]registry.RawRecord, 0, len(items))
	for i, item := range items {
		var r registry.RawRecord
		if err := decodeItem(item, &r); err != nil {
			return nil, fmt.Errorf("decode worker #%d: %w", i, err)
		}
		records = append(records, r)
	}

	return records, nil
}

func decodeItem(item map[string]any, target *registry.RawRecord) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(item)
}

func (s *HTTPStore) getPage(ctx context.Context, page int) (*itemResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}

	if s.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.token))
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	req.URL.RawQuery = q.Encode()

	s.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	var response itemResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode workers page %d: %w", page, err)
	}

	return &response, nil
}
