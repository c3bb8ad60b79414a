package service

import (
	"context"
	"course_gen_backend/internal/config"
	"course_gen_backend/internal/model"
	"course_gen_backend/pkg/logger"
	"course_gen_backend/pkg/monitoring"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ImageService 为整个课程解析一张代表性封面图。
// 封面是锦上添花：单次尝试、不重试，任何失败都退回固定默认图。
type ImageService struct {
	lookup          ResourceLookup
	storage         *StorageService
	client          *http.Client
	defaultImageURL string
	archive         bool
}

func NewImageService(lookup ResourceLookup, storage *StorageService, genCfg config.GenerationConfig) *ImageService {
	return &ImageService{
		lookup:          lookup,
		storage:         storage,
		client:          &http.Client{Timeout: 30 * time.Second},
		defaultImageURL: genCfg.DefaultImageURL,
		archive:         genCfg.ArchiveImages,
	}
}

func (s *ImageService) Resolve(ctx context.Context, title, description string) string {
	imageURL, found, err := s.lookup.FindImage(ctx, title)
	if err != nil || !found {
		monitoring.GenerationFallbacks.WithLabelValues("image").Inc()
		if err != nil {
			logger.Log.Warn("course image lookup failed, using default image",
				zap.String("title", title),
				zap.Error(err),
			)
		}
		return s.defaultImageURL
	}

	// 外链图片可能随时失效，可选转存一份到自己的存储。
	// 转存失败不影响结果，继续用外链。
	if s.archive && s.storage != nil {
		if archived, archiveErr := s.archiveImage(ctx, imageURL); archiveErr == nil {
			return archived
		} else {
			logger.Log.Warn("course image archive failed, keeping external URL",
				zap.String("url", imageURL),
				zap.Error(archiveErr),
			)
		}
	}

	return imageURL
}

func (s *ImageService) archiveImage(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// 失效的外链可能返回 404 页面，不能把错误页当封面存起来
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	ext := ".jpg"
	if strings.Contains(contentType, "png") {
		ext = ".png"
	}

	filename := path.Join("course-covers", model.GenerateUUID()+ext)
	return s.storage.Upload(ctx, filename, resp.Body, resp.ContentLength, contentType)
}
