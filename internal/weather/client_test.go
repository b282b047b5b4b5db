package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRoundTripper serves requests from an in-process handler.
type mockRoundTripper struct {
	handler http.Handler
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	m.handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}

func testClient(handler http.HandlerFunc) *Client {
	return &Client{
		BaseURL:   DefaultBaseURL,
		UserAgent: "test-agent",
		HTTPClient: &http.Client{
			Transport: &mockRoundTripper{handler: handler},
		},
	}
}

const forecastBody = `{
	"latitude": 51.5,
	"longitude": -0.1,
	"timezone": "Europe/London",
	"current_weather_units": {"temperature": "°C"},
	"current_weather": {"time": "2026-04-14T09:00", "temperature": 12.4, "windspeed": 9.1, "winddirection": 200, "weathercode": 3, "is_day": 1}
}`

func TestCurrent(t *testing.T) {
	client := testClient(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "51.5000", q.Get("latitude"))
		assert.Equal(t, "-0.0900", q.Get("longitude"))
		assert.Equal(t, "auto", q.Get("timezone"))
		assert.Equal(t, "true", q.Get("current_weather"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastBody))
	})

	fc, err := client.Current(context.Background(), 51.5, -0.09)
	require.NoError(t, err)
	assert.Equal(t, Entry{Temperature: 12.4, TempType: "°C", WeatherState: "☁️ Overcast"}, fc.Entry())
}

func TestCurrentHTTPError(t *testing.T) {
	client := testClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Current(context.Background(), 1, 2)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)
}

func TestCurrentDecodeError(t *testing.T) {
	client := testClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})

	_, err := client.Current(context.Background(), 1, 2)
	assert.Error(t, err)
}

func TestCurrentAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	fc, err := client.Current(context.Background(), 51.5, -0.09)
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", fc.Timezone)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", 0)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.NotZero(t, c.HTTPClient.Timeout)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "☀️ Clear sky", Describe(0))
	assert.Equal(t, "⛈️ Thunderstorm", Describe(95))
	assert.Equal(t, unknownCode, Describe(42))
}
