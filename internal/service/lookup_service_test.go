package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"course_gen_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindVideo_Success(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"part":            q.Get("part"),
			"q":               q.Get("q"),
			"type":            q.Get("type"),
			"maxResults":      q.Get("maxResults"),
			"videoEmbeddable": q.Get("videoEmbeddable"),
			"key":             q.Get("key"),
		}
		w.Write([]byte(`{"items": [{"id": {"videoId": "dQw4w9WgXcQ"}}]}`))
	}))
	defer srv.Close()

	svc := NewLookupService(
		config.YouTubeConfig{BaseURL: srv.URL, APIKey: "yt-key"},
		config.UnsplashConfig{},
	)

	link, found, err := svc.FindVideo(context.Background(), "graph theory tutorial")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", link)

	assert.Equal(t, "snippet", gotQuery["part"])
	assert.Equal(t, "graph theory tutorial", gotQuery["q"])
	assert.Equal(t, "video", gotQuery["type"])
	assert.Equal(t, "1", gotQuery["maxResults"])
	assert.Equal(t, "true", gotQuery["videoEmbeddable"])
	assert.Equal(t, "yt-key", gotQuery["key"])
}

func TestFindVideo_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	svc := NewLookupService(config.YouTubeConfig{BaseURL: srv.URL, APIKey: "k"}, config.UnsplashConfig{})

	_, found, err := svc.FindVideo(context.Background(), "something obscure")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindVideo_MissingKeyIsNotFound(t *testing.T) {
	svc := NewLookupService(config.YouTubeConfig{BaseURL: "http://unused"}, config.UnsplashConfig{})

	_, found, err := svc.FindVideo(context.Background(), "query")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindVideo_EmptyQueryIsNotFound(t *testing.T) {
	svc := NewLookupService(config.YouTubeConfig{BaseURL: "http://unused", APIKey: "k"}, config.UnsplashConfig{})

	_, found, err := svc.FindVideo(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindVideo_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quotaExceeded"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	svc := NewLookupService(config.YouTubeConfig{BaseURL: srv.URL, APIKey: "k"}, config.UnsplashConfig{})

	_, found, err := svc.FindVideo(context.Background(), "query")
	require.Error(t, err)
	assert.False(t, found)
}

func TestFindImage_Success(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "graph theory", r.URL.Query().Get("query"))
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"results": [{"urls": {"regular": "https://images.unsplash.com/photo-x?w=1080"}}]}`))
	}))
	defer srv.Close()

	svc := NewLookupService(
		config.YouTubeConfig{},
		config.UnsplashConfig{BaseURL: srv.URL, AccessKey: "unsplash-key"},
	)

	url, found, err := svc.FindImage(context.Background(), "graph theory")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://images.unsplash.com/photo-x?w=1080", url)
	assert.Equal(t, "Client-ID unsplash-key", gotAuth)
}

func TestFindImage_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	svc := NewLookupService(config.YouTubeConfig{}, config.UnsplashConfig{BaseURL: srv.URL, AccessKey: "k"})

	_, found, err := svc.FindImage(context.Background(), "nothing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindImage_MissingKeyIsNotFound(t *testing.T) {
	svc := NewLookupService(config.YouTubeConfig{}, config.UnsplashConfig{BaseURL: "http://unused"})

	_, found, err := svc.FindImage(context.Background(), "query")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindImage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc := NewLookupService(config.YouTubeConfig{}, config.UnsplashConfig{BaseURL: srv.URL, AccessKey: "bad"})

	_, found, err := svc.FindImage(context.Background(), "query")
	require.Error(t, err)
	assert.False(t, found)
}
