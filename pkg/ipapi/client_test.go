package ipapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIP_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ip":"203.0.113.9"}`))
	}))
	defer srv.Close()

	client := NewClient(WithIPBaseURL(srv.URL))
	ip, err := client.ResolveIP(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", ip)
}

func TestResolveIP_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(WithIPBaseURL(srv.URL))
	_, err := client.ResolveIP(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestResolveGeo_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/203.0.113.9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","country":"France","city":"Paris","timezone":"Europe/Paris"}`))
	}))
	defer srv.Close()

	client := NewClient(WithGeoBaseURL(srv.URL))
	geo, err := client.ResolveGeo(context.Background(), "203.0.113.9")

	require.NoError(t, err)
	assert.Equal(t, "France", geo.Country)
	assert.Equal(t, "Paris", geo.City)
	assert.Equal(t, "Europe/Paris", geo.Timezone)
}

func TestResolveGeo_FailStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer srv.Close()

	client := NewClient(WithGeoBaseURL(srv.URL))
	_, err := client.ResolveGeo(context.Background(), "10.0.0.1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fail")
}
