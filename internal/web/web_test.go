package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermalprint/internal/config"
	"thermalprint/internal/printer"
)

type countingReport struct {
	name  string
	calls int
	err   error
}

func (c *countingReport) Name() string { return c.name }

func (c *countingReport) Build(context.Context, time.Time) ([]printer.Segment, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []printer.Segment{
		printer.Raw([]byte{0xD5, 0xCD, 0xB8}, printer.CP437, true),
		printer.Line("hi", printer.ISO8859_1),
	}, nil
}

func newTestServer(cfg *config.Config, reps ...*countingReport) *Server {
	s := NewServer(cfg)
	for _, r := range reps {
		s.reports[r.name] = r
	}
	return s
}

func get(t *testing.T, h http.Handler, path string, auth ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if len(auth) == 2 {
		req.SetBasicAuth(auth[0], auth[1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPreviewRendersAndCaches(t *testing.T) {
	rep := &countingReport{name: "agenda"}
	s := newTestServer(config.DefaultConfig(), rep)
	h := s.Handler()

	rec := get(t, h, "/api/preview/agenda")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "╒═╕\nhi\n", rec.Body.String())

	get(t, h, "/api/preview/agenda")
	assert.Equal(t, 1, rep.calls)

	get(t, h, "/api/preview/agenda?fresh=1")
	assert.Equal(t, 2, rep.calls)
}

func TestPreviewErrors(t *testing.T) {
	s := newTestServer(config.DefaultConfig(), &countingReport{name: "weather", err: errors.New("alias cycle")})
	h := s.Handler()

	rec := get(t, h, "/api/preview/weather")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "alias cycle")

	rec = get(t, h, "/api/preview/horoscope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "me", Password: "pw"}
	h := newTestServer(cfg, &countingReport{name: "agenda"}).Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/preview/agenda").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/preview/agenda", "me", "nope").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/preview/agenda", "me", "pw").Code)
}
