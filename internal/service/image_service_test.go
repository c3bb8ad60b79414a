package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"course_gen_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProvider 记录上传调用的存储桩
type recordingProvider struct {
	uploads []string
}

func (p *recordingProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	p.uploads = append(p.uploads, filename)
	return p.GetURL(filename), nil
}

func (p *recordingProvider) Delete(ctx context.Context, filename string) error { return nil }

func (p *recordingProvider) GetURL(filename string) string {
	return "https://cdn.example.com/" + filename
}

func archivingConfig() config.GenerationConfig {
	cfg := testGenerationConfig()
	cfg.ArchiveImages = true
	return cfg
}

func TestImageResolve_FoundKeepsExternalURL(t *testing.T) {
	lookup := &stubLookup{imageURL: "https://images.unsplash.com/photo-abc", imageFound: true}
	svc := NewImageService(lookup, nil, testGenerationConfig())

	url := svc.Resolve(context.Background(), "Graph Theory Fundamentals", "desc")
	assert.Equal(t, "https://images.unsplash.com/photo-abc", url)
	assert.Equal(t, []string{"Graph Theory Fundamentals"}, lookup.queries)
}

func TestImageResolve_NotFoundUsesDefault(t *testing.T) {
	svc := NewImageService(&stubLookup{}, nil, testGenerationConfig())

	url := svc.Resolve(context.Background(), "Anything", "desc")
	assert.Equal(t, "https://images.unsplash.com/photo-1516979187457-637abb4f9353", url)
}

func TestImageResolve_LookupErrorUsesDefault(t *testing.T) {
	lookup := &stubLookup{imageErr: errors.New("unsplash down")}
	svc := NewImageService(lookup, nil, testGenerationConfig())

	url := svc.Resolve(context.Background(), "Anything", "desc")
	assert.Equal(t, "https://images.unsplash.com/photo-1516979187457-637abb4f9353", url)
}

func TestImageResolve_ArchivesExternalImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	lookup := &stubLookup{imageURL: server.URL, imageFound: true}
	provider := &recordingProvider{}
	svc := NewImageService(lookup, &StorageService{Provider: provider}, archivingConfig())

	url := svc.Resolve(context.Background(), "Graph Theory", "desc")
	require.Len(t, provider.uploads, 1)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/course-covers/"))
	assert.True(t, strings.HasSuffix(url, ".png"))
}

func TestImageResolve_ArchiveSkipsErrorPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	// 外链返回 404 时不转存错误页，封面仍然用外链
	lookup := &stubLookup{imageURL: server.URL, imageFound: true}
	provider := &recordingProvider{}
	svc := NewImageService(lookup, &StorageService{Provider: provider}, archivingConfig())

	url := svc.Resolve(context.Background(), "Graph Theory", "desc")
	assert.Equal(t, server.URL, url)
	assert.Empty(t, provider.uploads)
}
