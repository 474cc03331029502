package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPResolverResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resolve", r.URL.Path)
		assert.Equal(t, "media-source://media/song.mp3", r.URL.Query().Get("media_id"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"https://media.example/song.mp3","mime_type":"audio/mpeg"}`))
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(HTTPResolverConfig{BaseURL: srv.URL})
	resolved, err := resolver.Resolve(context.Background(), "media-source://media/song.mp3")
	require.NoError(t, err)

	assert.Equal(t, "https://media.example/song.mp3", resolved.URL)
	assert.Equal(t, "audio/mpeg", resolved.MimeType)
}

func TestHTTPResolverErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown media id", http.StatusNotFound)
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(HTTPResolverConfig{BaseURL: srv.URL})
	_, err := resolver.Resolve(context.Background(), "media-source://media/missing.mp3")
	assert.Error(t, err)
}

func TestHTTPResolverRejectsEmptyURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(HTTPResolverConfig{BaseURL: srv.URL})
	_, err := resolver.Resolve(context.Background(), "media-source://media/song.mp3")
	assert.Error(t, err)
}
