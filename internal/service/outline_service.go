package service

import (
	"context"
	"course_gen_backend/internal/model"
	"course_gen_backend/pkg/logger"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ModuleSpec 大纲中的一个周模块，1:1 对应一个持久化单元
type ModuleSpec struct {
	Week         int      `json:"week"`
	Title        string   `json:"title"`
	Objectives   []string `json:"objectives"`
	TimeEstimate string   `json:"timeEstimate"`
}

// CourseOutline 课程大纲，仅在一次生成运行期间存活
type CourseOutline struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Modules     []ModuleSpec `json:"modules"`
}

// OutlineService 根据主题/难度/周数生成课程大纲。
// 大纲失败没有有意义的兜底，解析不出时返回 ErrOutlineParse，由协调器中止整次运行。
type OutlineService struct {
	ai TextGenerator
}

func NewOutlineService(ai TextGenerator) *OutlineService {
	return &OutlineService{ai: ai}
}

func (s *OutlineService) Generate(ctx context.Context, topic string, difficulty model.Difficulty, weeks int) (*CourseOutline, error) {
	raw, err := s.ai.Complete(ctx, outlinePrompt(topic, difficulty, weeks), 0)
	if err != nil {
		return nil, err
	}

	var outline CourseOutline
	if err := ExtractJSONField(raw, "modules", &outline); err != nil {
		logger.Log.Warn("outline extraction failed",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrOutlineParse, err)
	}

	if len(outline.Modules) == 0 {
		return nil, fmt.Errorf("%w: outline has no modules", ErrOutlineParse)
	}

	// 模型不守约时补齐缺失字段。模块数与周数不一致不视为错误。
	if outline.Title == "" {
		outline.Title = topic
	}
	if len(outline.Modules) != weeks {
		logger.Log.Warn("outline module count differs from requested duration",
			zap.String("topic", topic),
			zap.Int("requested", weeks),
			zap.Int("got", len(outline.Modules)),
		)
	}
	for i := range outline.Modules {
		if outline.Modules[i].Week == 0 {
			outline.Modules[i].Week = i + 1
		}
		if outline.Modules[i].Title == "" {
			outline.Modules[i].Title = fmt.Sprintf("Week %d", i+1)
		}
	}

	return &outline, nil
}

func outlinePrompt(topic string, difficulty model.Difficulty, weeks int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced curriculum designer. Create a %s-level course outline about %q spanning %d weeks, one module per week.\n\n", difficulty, topic, weeks)
	b.WriteString("Respond with JSON only, no commentary, exactly in this shape:\n")
	b.WriteString(`{
  "title": "course title",
  "description": "two or three sentences describing the course",
  "modules": [
    {
      "week": 1,
      "title": "module title",
      "objectives": ["objective 1", "objective 2", "objective 3"],
      "timeEstimate": "4 hours"
    }
  ]
}`)
	b.WriteString("\n\nEvery module must have at least two objectives and a realistic timeEstimate.")
	return b.String()
}
