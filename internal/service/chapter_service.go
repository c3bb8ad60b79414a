package service

import (
	"context"
	"course_gen_backend/internal/config"
	"course_gen_backend/pkg/logger"
	"course_gen_backend/pkg/monitoring"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ChapterSpec 展开阶段产出的章节骨架，1:1 对应一个持久化章节
type ChapterSpec struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	EstimatedTime    string   `json:"estimatedTime"`
	LearningPoints   []string `json:"learningPoints"`
	Resources        []string `json:"resources"`
	VideoSearchQuery string   `json:"videoSearchQuery"`
}

// EnrichedChapter 充实后的章节。不变式：三个字段始终非空，
// 失败只会降级为占位内容，不会出现空值。
type EnrichedChapter struct {
	Name            string
	ReadingMaterial string
	VideoLink       string
}

// ChapterService 承担两段管线：
//   - Expand 把一个大纲模块展开为章节骨架列表，内部兜底，永不失败
//   - Enrich 为单个章节骨架生成阅读材料并解析视频链接，两个子操作
//     互相隔离，任一失败都以兜底值收尾，对调用方是全函数
type ChapterService struct {
	ai              TextGenerator
	lookup          ResourceLookup
	defaultVideoURL string
}

func NewChapterService(ai TextGenerator, lookup ResourceLookup, genCfg config.GenerationConfig) *ChapterService {
	return &ChapterService{
		ai:              ai,
		lookup:          lookup,
		defaultVideoURL: genCfg.DefaultVideoURL,
	}
}

// Expand 展开一个模块。提取失败时退化为单章节：标题 "Introduction to {模块标题}"，
// 学习要点取模块目标，目标为空时用两条通用占位。
func (s *ChapterService) Expand(ctx context.Context, outline *CourseOutline, module ModuleSpec) []ChapterSpec {
	raw, err := s.ai.Complete(ctx, expandPrompt(outline, module), 0)
	if err == nil {
		var payload struct {
			Chapters []ChapterSpec `json:"chapters"`
		}
		if extractErr := ExtractJSONField(raw, "chapters", &payload); extractErr == nil && len(payload.Chapters) > 0 {
			for i := range payload.Chapters {
				if payload.Chapters[i].Title == "" {
					payload.Chapters[i].Title = fmt.Sprintf("%s — Part %d", module.Title, i+1)
				}
				if payload.Chapters[i].VideoSearchQuery == "" {
					payload.Chapters[i].VideoSearchQuery = payload.Chapters[i].Title + " tutorial"
				}
			}
			return payload.Chapters
		}
	}

	monitoring.GenerationFallbacks.WithLabelValues("expand").Inc()
	logger.Log.Warn("module expansion fell back to a single chapter",
		zap.String("module", module.Title),
		zap.Error(err),
	)
	return []ChapterSpec{s.fallbackChapter(module)}
}

func (s *ChapterService) fallbackChapter(module ModuleSpec) ChapterSpec {
	points := make([]string, len(module.Objectives))
	copy(points, module.Objectives)
	if len(points) == 0 {
		points = []string{"Learning point 1", "Learning point 2"}
	}

	description := "An introductory overview of " + module.Title + "."
	estimated := module.TimeEstimate
	if estimated == "" {
		estimated = "1 hour"
	}

	return ChapterSpec{
		Title:            "Introduction to " + module.Title,
		Description:      description,
		EstimatedTime:    estimated,
		LearningPoints:   points,
		VideoSearchQuery: module.Title + " tutorial",
	}
}

// Enrich 全函数：无论外部服务状态如何都返回完整章节
func (s *ChapterService) Enrich(ctx context.Context, spec ChapterSpec) EnrichedChapter {
	return EnrichedChapter{
		Name:            spec.Title,
		ReadingMaterial: s.generateReading(ctx, spec),
		VideoLink:       s.resolveVideo(ctx, spec),
	}
}

func (s *ChapterService) generateReading(ctx context.Context, spec ChapterSpec) string {
	raw, err := s.ai.Complete(ctx, readingPrompt(spec), 0)
	if err == nil {
		if text := strings.TrimSpace(raw); text != "" {
			return text
		}
	}

	monitoring.GenerationFallbacks.WithLabelValues("reading").Inc()
	logger.Log.Warn("reading material generation failed, using placeholder",
		zap.String("chapter", spec.Title),
		zap.Error(err),
	)
	return readingPlaceholder(spec)
}

func (s *ChapterService) resolveVideo(ctx context.Context, spec ChapterSpec) string {
	query := spec.VideoSearchQuery
	if query == "" {
		query = spec.Title + " tutorial"
	}

	link, found, err := s.lookup.FindVideo(ctx, query)
	if err != nil || !found {
		monitoring.GenerationFallbacks.WithLabelValues("video").Inc()
		if err != nil {
			logger.Log.Warn("video lookup failed, using default link",
				zap.String("query", query),
				zap.Error(err),
			)
		}
		return s.defaultVideoURL
	}
	return link
}

// readingPlaceholder 固定占位文本，引用章节标题和推荐资源
func readingPlaceholder(spec ChapterSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reading material for %q could not be generated automatically.\n\n", spec.Title)
	if spec.Description != "" {
		b.WriteString(spec.Description + "\n\n")
	}
	if len(spec.Resources) > 0 {
		b.WriteString("In the meantime, explore these suggested resources:\n")
		for _, r := range spec.Resources {
			b.WriteString("- " + r + "\n")
		}
	} else {
		b.WriteString("In the meantime, search for introductory materials on this topic.\n")
	}
	return b.String()
}

func expandPrompt(outline *CourseOutline, module ModuleSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are writing the course %q. Break the module %q (week %d) into chapters.\n\n", outline.Title, module.Title, module.Week)
	if len(module.Objectives) > 0 {
		b.WriteString("Module objectives:\n")
		for _, o := range module.Objectives {
			b.WriteString("- " + o + "\n")
		}
	}
	if module.TimeEstimate != "" {
		fmt.Fprintf(&b, "Total time budget: %s\n", module.TimeEstimate)
	}
	b.WriteString("\nRespond with JSON only, no commentary, exactly in this shape:\n")
	b.WriteString(`{
  "chapters": [
    {
      "title": "chapter title",
      "description": "what this chapter covers",
      "estimatedTime": "45 minutes",
      "learningPoints": ["point 1", "point 2"],
      "resources": ["resource name or URL"],
      "videoSearchQuery": "a short search phrase for a matching video"
    }
  ]
}`)
	b.WriteString("\n\nProduce between one and five chapters that together cover all objectives.")
	return b.String()
}

func readingPrompt(spec ChapterSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write detailed reading material in Markdown for a course chapter titled %q.\n\n", spec.Title)
	if spec.Description != "" {
		fmt.Fprintf(&b, "Chapter description: %s\n", spec.Description)
	}
	if spec.EstimatedTime != "" {
		fmt.Fprintf(&b, "Intended study time: %s\n", spec.EstimatedTime)
	}
	if len(spec.LearningPoints) > 0 {
		b.WriteString("Cover these learning points:\n")
		for _, p := range spec.LearningPoints {
			b.WriteString("- " + p + "\n")
		}
	}
	if len(spec.Resources) > 0 {
		b.WriteString("Reference these resources where relevant:\n")
		for _, r := range spec.Resources {
			b.WriteString("- " + r + "\n")
		}
	}
	b.WriteString("\nUse section headings, short paragraphs and concrete examples. Do not include a top-level title heading.")
	return b.String()
}
