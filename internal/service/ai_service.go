package service

import (
	"bytes"
	"context"
	"course_gen_backend/internal/config"
	"course_gen_backend/pkg/monitoring"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// TextGenerator 大模型文本补全接口，管线各阶段通过它拿到原始文本
type TextGenerator interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// AIService 调用 OpenAI 兼容的 /chat/completions 接口。
// 所有失败（鉴权、限流、网络、响应格式错误）统一包装为 ErrGenerationService，
// 管线不区分具体原因。
type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

// UpdateConfig 支持配置热更新，运行中轮换 API Key 或切换模型无需重启
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model     string          `json:"model"`
	Messages  []AIChatMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete 单次补全，不重试：韧性由调用方的兜底值承担，保证延迟有界
func (s *AIService) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	start := time.Now()
	defer monitoring.ObserveExternalCall("llm", start)

	s.mu.RLock()
	cfg := s.config
	s.mu.RUnlock()

	if maxTokens <= 0 {
		maxTokens = cfg.MaxTokens
	}

	reqBody := ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []AIChatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationService, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationService, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationService, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrGenerationService, resp.StatusCode, truncate(string(body), 256))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationService, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrGenerationService, result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrGenerationService)
	}

	return result.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
