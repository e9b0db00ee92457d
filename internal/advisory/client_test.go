package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Likely spam. Severity: low. Suggest dismissal."}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "test-model", time.Second)
	got := c.Assess(context.Background(), "spam", "buy cheap stuff now")
	assert.Equal(t, "Likely spam. Severity: low. Suggest dismissal.", got)
}

func TestAssessFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"empty choices", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}},
		{"broken body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient("test-key", srv.URL, "test-model", time.Second)
			assert.Equal(t, Fallback, c.Assess(context.Background(), "spam", "content"))
		})
	}
}

func TestAssessWithoutKey(t *testing.T) {
	c := NewClient("", "http://127.0.0.1:1", "test-model", time.Second)
	assert.Equal(t, Fallback, c.Assess(context.Background(), "spam", "content"))
	assert.False(t, c.Enabled())
}

func TestAssessUnreachable(t *testing.T) {
	c := NewClient("test-key", "http://127.0.0.1:1", "test-model", 200*time.Millisecond)
	assert.Equal(t, Fallback, c.Assess(context.Background(), "spam", "content"))
}
