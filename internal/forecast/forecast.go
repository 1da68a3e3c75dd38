// Package forecast fetches the daily series from a Dark-Sky-compatible
// forecast API and reduces it to the snapshot the weather report prints.
package forecast

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

	appLog "thermalprint/internal/log"
	"thermalprint/internal/model"
)

const (
	// iconDay supplies the leading icon; todayIndex is the day reported.
	iconDay    = 0
	todayIndex = 3
)

// Day is one entry of the API's daily.data array.
type Day struct {
	Time               int64    `json:"time"`
	Icon               string   `json:"icon"`
	Summary            string   `json:"summary"`
	TemperatureMin     float64  `json:"temperatureMin"`
	TemperatureMax     float64  `json:"temperatureMax"`
	WindSpeed          float64  `json:"windSpeed"`
	WindBearing        *float64 `json:"windBearing"`
	Humidity           float64  `json:"humidity"`
	PrecipIntensityMax float64  `json:"precipIntensityMax"`
}

type response struct {
	Daily struct {
		Data []Day `json:"data"`
	} `json:"daily"`
}

// Options configures a Client.
type Options struct {
	Endpoint  string
	APIKey    string
	Latitude  float64
	Longitude float64
	Units     string
	Lang      string

	HTTPClient *http.Client
}

// Client fetches the daily series for one location.
type Client struct {
	opts Options
	http *http.Client
}

// NewClient uses opts.HTTPClient, or a client with a 15s timeout.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{opts: opts, http: hc}
}

func (c *Client) requestURL() string {
	q := url.Values{}
	if c.opts.Units != "" {
		q.Set("units", c.opts.Units)
	}
	if c.opts.Lang != "" {
		q.Set("lang", c.opts.Lang)
	}
	q.Set("exclude", "currently,minutely,hourly,alerts,flags")

	coords := strconv.FormatFloat(c.opts.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(c.opts.Longitude, 'f', -1, 64)

	return strings.TrimRight(c.opts.Endpoint, "/") +
		"/forecast/" + url.PathEscape(c.opts.APIKey) + "/" + coords + "?" + q.Encode()
}

// Daily returns the daily forecast series.
func (c *Client) Daily(ctx context.Context) ([]Day, error) {
	if c.opts.APIKey == "" {
		return nil, errors.New("forecast: API key is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("forecast: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("forecast: decode: %w", err)
	}

	appLog.Debug("forecast fetched", "days", len(r.Daily.Data))
	return r.Daily.Data, nil
}

// Snapshot reduces a daily series to today's values. Fractions are scaled
// to percentages and every value is truncated to an integer.
func Snapshot(days []Day) (model.WeatherSnapshot, error) {
	if len(days) <= todayIndex {
		return model.WeatherSnapshot{}, fmt.Errorf("forecast: need at least %d days, got %d", todayIndex+1, len(days))
	}
	today := days[todayIndex]

	snap := model.WeatherSnapshot{
		Icon:          days[iconDay].Icon,
		TempMin:       int(today.TemperatureMin),
		TempMax:       int(today.TemperatureMax),
		WindSpeed:     int(today.WindSpeed),
		Humidity:      int(today.Humidity * 100),
		Precipitation: int(today.PrecipIntensityMax * 100),
	}
	if snap.WindSpeed != 0 && today.WindBearing != nil {
		b := *today.WindBearing
		snap.WindBearing = &b
	}
	return snap, nil
}
