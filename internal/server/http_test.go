package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/hire-labor/internal/registry"
	"github.com/spigell/hire-labor/internal/search"
	"github.com/spigell/hire-labor/internal/store"
)

type flakyStore struct {
	fail atomic.Bool
}

func (s *flakyStore) FetchAll(ctx context.Context) ([]registry.RawRecord, error) {
	if s.fail.Load() {
		return nil, errors.New("store is down")
	}
	return store.DemoStore{}.FetchAll(ctx)
}

// newTestServer wires a real orchestrator without a classifier so every search
// resolves synchronously through the local matcher.
func newTestServer(t *testing.T) (*httptest.Server, *flakyStore) {
	t.Helper()

	st := &flakyStore{}
	cache := registry.NewCache(st, zap.NewNop())
	require.NoError(t, cache.Load(context.Background()))

	o := search.New(context.Background(), cache, nil, zap.NewNop(), search.Options{})
	srv := httptest.NewServer(NewServer(o, zap.NewNop()))
	t.Cleanup(srv.Close)

	return srv, st
}

func getState(t *testing.T, url string) stateResponse {
	t.Helper()

	resp, err := http.Get(url + "/state?wait=true")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state stateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	return state
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSearchThenState(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/search", "application/json", strings.NewReader(`{"query":"plumb"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var issued issuedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&issued))
	assert.Equal(t, uint64(1), issued.Generation)

	state := getState(t, srv.URL)
	assert.Equal(t, "plumb", state.Query)
	assert.Equal(t, search.ModeLocal, state.Mode)
	require.Len(t, state.Results, 2)
	assert.Equal(t, "1", state.Results[0].ID)
	assert.Equal(t, "6", state.Results[1].ID)
	assert.Equal(t, map[string]int{"Plumber": 2}, state.Counts)
}

func TestNoResultsAndClear(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/search", "application/json", strings.NewReader(`{"query":"astronaut"}`))
	require.NoError(t, err)
	resp.Body.Close()

	state := getState(t, srv.URL)
	assert.True(t, state.NoResults)
	assert.Empty(t, state.Results)

	resp, err = http.Post(srv.URL+"/clear", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	state = getState(t, srv.URL)
	assert.False(t, state.NoResults)
	assert.Len(t, state.Results, 10)
	assert.Equal(t, uint64(2), state.Generation)
}

func TestSearchRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := map[string]string{
		"not json": `{"query":`,
		"too long": fmt.Sprintf(`{"query":%q}`, strings.Repeat("a", maxQueryLength+1)),
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/search", "application/json", strings.NewReader(body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRefresh(t *testing.T) {
	srv, st := newTestServer(t)

	resp, err := http.Post(srv.URL+"/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	st.fail.Store(true)
	resp, err = http.Post(srv.URL+"/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// The previous snapshot is still served.
	assert.Len(t, getState(t, srv.URL).Results, 10)
}

func TestTaxonomy(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/taxonomy")
	require.NoError(t, err)
	defer resp.Body.Close()

	var categories []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&categories))
	require.NotEmpty(t, categories)
	assert.Equal(t, "Plumber", categories[0].Name)
}

func TestHealthBeforeRegistryLoad(t *testing.T) {
	cache := registry.NewCache(&flakyStore{}, zap.NewNop())
	o := search.New(context.Background(), cache, nil, zap.NewNop(), search.Options{})
	srv := httptest.NewServer(NewServer(o, zap.NewNop()))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, cache.Load(context.Background()))

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSearchAcceptsEscapedQueryWithinLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	// 400 runes sent as \uXXXX escapes: 2400 bytes of query text.
	body := `{"query":"` + strings.Repeat(`\u092a`, 400) + `"}`
	resp, err := http.Post(srv.URL+"/search", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	assert.Equal(t, 400, utf8.RuneCountInString(getState(t, srv.URL).Query))
}

func TestSearchRejectsOversizedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"query":"` + strings.Repeat(`\u092a`, maxQueryLength+200) + `"}`
	resp, err := http.Post(srv.URL+"/search", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	msg, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "query is too long", strings.TrimSpace(string(msg)))
}

// readEvent returns the data payload of the next server-sent event.
func readEvent(t *testing.T, r *bufio.Reader) stateResponse {
	t.Helper()

	var data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			continue
		}
		if line == "" && data != "" {
			break
		}
	}

	var state stateResponse
	require.NoError(t, json.Unmarshal([]byte(data), &state))
	return state
}

func TestEventsStreamAppliedSearches(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/clear", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()

	require.Equal(t, http.StatusOK, stream.StatusCode)
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	events := bufio.NewReader(stream.Body)

	first := readEvent(t, events)
	assert.Equal(t, uint64(1), first.Applied)
	assert.Len(t, first.Results, 10)

	resp, err = http.Post(srv.URL+"/search", "application/json", strings.NewReader(`{"query":"weld"}`))
	require.NoError(t, err)
	resp.Body.Close()

	next := readEvent(t, events)
	assert.Equal(t, "weld", next.Query)
	assert.Equal(t, uint64(2), next.Applied)
	require.Len(t, next.Results, 1)
	assert.Equal(t, "9", next.Results[0].ID)
	assert.Equal(t, map[string]int{"Welder": 1}, next.Counts)
}
