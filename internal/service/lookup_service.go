package service

import (
	"context"
	"course_gen_backend/internal/config"
	"course_gen_backend/pkg/monitoring"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ResourceLookup 外部资源检索接口。
// 约定：查无结果返回 ("", false, nil)，只有传输/鉴权类失败才返回 error。
type ResourceLookup interface {
	FindVideo(ctx context.Context, query string) (string, bool, error)
	FindImage(ctx context.Context, query string) (string, bool, error)
}

// LookupService 封装 YouTube Data API（视频搜索）和 Unsplash（图片搜索）。
// 未配置密钥时按"无结果"处理，调用方走兜底值，不视为错误。
type LookupService struct {
	youtube  config.YouTubeConfig
	unsplash config.UnsplashConfig
	client   *http.Client
}

func NewLookupService(ytCfg config.YouTubeConfig, unsplashCfg config.UnsplashConfig) *LookupService {
	return &LookupService{
		youtube:  ytCfg,
		unsplash: unsplashCfg,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

func (s *LookupService) FindVideo(ctx context.Context, query string) (string, bool, error) {
	if s.youtube.APIKey == "" || query == "" {
		return "", false, nil
	}

	start := time.Now()
	defer monitoring.ObserveExternalCall("youtube", start)

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", "1")
	params.Set("videoEmbeddable", "true")
	params.Set("key", s.youtube.APIKey)

	body, err := s.get(ctx, s.youtube.BaseURL+"/search?"+params.Encode())
	if err != nil {
		return "", false, err
	}

	var result youtubeSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", false, fmt.Errorf("youtube search: %w", err)
	}
	if len(result.Items) == 0 || result.Items[0].ID.VideoID == "" {
		return "", false, nil
	}

	return "https://www.youtube.com/watch?v=" + result.Items[0].ID.VideoID, true, nil
}

type unsplashSearchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

func (s *LookupService) FindImage(ctx context.Context, query string) (string, bool, error) {
	if s.unsplash.AccessKey == "" || query == "" {
		return "", false, nil
	}

	start := time.Now()
	defer monitoring.ObserveExternalCall("unsplash", start)

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, "GET", s.unsplash.BaseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Authorization", "Client-ID "+s.unsplash.AccessKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("unsplash search: status %d", resp.StatusCode)
	}

	var result unsplashSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", false, fmt.Errorf("unsplash search: %w", err)
	}
	if len(result.Results) == 0 || result.Results[0].URLs.Regular == "" {
		return "", false, nil
	}

	return result.Results[0].URLs.Regular, true, nil
}

func (s *LookupService) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup: status %d", resp.StatusCode)
	}
	return body, nil
}
