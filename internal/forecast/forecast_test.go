package forecast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "latitude": 48.85,
  "longitude": 2.35,
  "daily": {
    "data": [
      {"time": 1, "icon": "rain", "temperatureMin": 1, "temperatureMax": 2},
      {"time": 2, "icon": "cloudy"},
      {"time": 3, "icon": "cloudy"},
      {"time": 4, "icon": "clear-day", "temperatureMin": -2.7, "temperatureMax": 11.9,
       "windSpeed": 12.6, "windBearing": 95, "humidity": 0.81, "precipIntensityMax": 0.0312}
    ]
  }
}`

func TestDaily(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient(Options{
		Endpoint:   srv.URL + "/",
		APIKey:     "k3y",
		Latitude:   48.85,
		Longitude:  2.35,
		Units:      "ca",
		Lang:       "fr",
		HTTPClient: srv.Client(),
	})

	days, err := c.Daily(context.Background())
	require.NoError(t, err)
	require.Len(t, days, 4)
	assert.Equal(t, "/forecast/k3y/48.85,2.35", gotPath)
	assert.Contains(t, gotQuery, "units=ca")
	assert.Contains(t, gotQuery, "lang=fr")
	assert.Nil(t, days[1].WindBearing)
	require.NotNil(t, days[3].WindBearing)
	assert.Equal(t, 95.0, *days[3].WindBearing)
}

func TestDailyErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(Options{Endpoint: srv.URL, APIKey: "x", HTTPClient: srv.Client()}).Daily(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")

	_, err = NewClient(Options{Endpoint: srv.URL}).Daily(context.Background())
	assert.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	bearing := 95.0
	days := []Day{
		{Icon: "rain"},
		{Icon: "cloudy"},
		{Icon: "cloudy"},
		{
			Icon:               "clear-day",
			TemperatureMin:     -2.7,
			TemperatureMax:     11.9,
			WindSpeed:          12.6,
			WindBearing:        &bearing,
			Humidity:           0.81,
			PrecipIntensityMax: 0.0312,
		},
	}

	snap, err := Snapshot(days)
	require.NoError(t, err)
	assert.Equal(t, "rain", snap.Icon, "icon comes from the first day")
	assert.Equal(t, -2, snap.TempMin)
	assert.Equal(t, 11, snap.TempMax)
	assert.Equal(t, 12, snap.WindSpeed)
	require.NotNil(t, snap.WindBearing)
	assert.Equal(t, 95.0, *snap.WindBearing)
	assert.Equal(t, 81, snap.Humidity)
	assert.Equal(t, 3, snap.Precipitation)
}

func TestSnapshotWithoutWindDropsBearing(t *testing.T) {
	bearing := 200.0
	days := make([]Day, 4)
	days[3] = Day{WindSpeed: 0.4, WindBearing: &bearing}

	snap, err := Snapshot(days)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.WindSpeed)
	assert.Nil(t, snap.WindBearing)
}

func TestSnapshotNeedsFourDays(t *testing.T) {
	_, err := Snapshot(make([]Day, 3))
	assert.Error(t, err)
}
