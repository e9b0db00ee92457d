package ipinfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ip":"198.51.100.4"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ip, err := c.PublicIP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.4", ip)
}

func TestPublicIPErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"empty address", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ip":""}`))
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("plain text"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, time.Second)
			ip, err := c.PublicIP(context.Background())
			assert.Error(t, err)
			assert.Empty(t, ip)
		})
	}
}

func TestPublicIPUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.PublicIP(context.Background())
	assert.Error(t, err)
}
