package service

import (
	"context"
	"course_gen_backend/internal/config"
	"course_gen_backend/internal/model"
	"course_gen_backend/internal/util"
	"course_gen_backend/pkg/logger"
	"course_gen_backend/pkg/monitoring"
	"course_gen_backend/pkg/tracing"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CourseStore 持久化网关。按 (userID, courseID) 幂等创建课程，
// 单元和章节增量追加。
type CourseStore interface {
	FindOrCreateCourse(course *model.Course) (*model.Course, error)
	CreateUnit(unit *model.Unit) error
	CreateChapter(chapter *model.Chapter) error
	UnitCount(courseID string) (int64, error)
	ComputeStatus(courseID string, userID uint) (model.GenerationStatus, error)
}

// GenerationState 跨运行状态：同课程运行互斥锁与失败标记
type GenerationState interface {
	AcquireLock(ctx context.Context, userID uint, courseID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, userID uint, courseID string) error
	MarkFailed(ctx context.Context, courseID, reason string, ttl time.Duration) error
	ClearFailed(ctx context.Context, courseID string) error
	FailureReason(ctx context.Context, courseID string) (string, bool, error)
}

// GenerationRequest 一次生成运行的不可变输入
type GenerationRequest struct {
	CourseID      string
	UserID        uint
	Topic         string
	Difficulty    model.Difficulty
	DurationWeeks int
}

// StatusResponse 状态轮询结果
type StatusResponse struct {
	Status model.GenerationStatus `json:"status"`
	Reason string                 `json:"reason,omitempty"`
}

// CourseGenerationService 生成协调器。
// 运行流程：大纲（失败即中止，不产生任何数据）→ 逐单元展开 →
// 单元内章节并发充实 → 按单元增量持久化。单元粒度容错：
// 某个单元出问题只记录日志并推进到下一个单元，不中止运行。
type CourseGenerationService struct {
	outlines *OutlineService
	chapters *ChapterService
	images   *ImageService
	store    CourseStore
	state    GenerationState

	concurrency int
	lockTTL     time.Duration

	mu      sync.Mutex
	running map[string]generationRun
}

// generationRun 进行中运行的句柄，记录发起者用于取消时的归属校验
type generationRun struct {
	cancel context.CancelFunc
	userID uint
}

func NewCourseGenerationService(
	outlines *OutlineService,
	chapters *ChapterService,
	images *ImageService,
	store CourseStore,
	state GenerationState,
	genCfg config.GenerationConfig,
) *CourseGenerationService {
	concurrency := genCfg.ChapterConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	lockTTL := time.Duration(genCfg.LockTTLMinutes) * time.Minute
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}

	return &CourseGenerationService{
		outlines:    outlines,
		chapters:    chapters,
		images:      images,
		store:       store,
		state:       state,
		concurrency: concurrency,
		lockTTL:     lockTTL,
		running:     make(map[string]generationRun),
	}
}

// StartGeneration 受理一次生成请求。大纲同步生成，失败立即返回
// "无法生成课程"且不落任何数据；成功后转入后台按单元持久化，
// 调用方通过状态轮询观察进度。
func (s *CourseGenerationService) StartGeneration(ctx context.Context, req GenerationRequest) (string, error) {
	if req.CourseID == "" {
		req.CourseID = model.GenerateUUID()
	}

	locked, err := s.state.AcquireLock(ctx, req.UserID, req.CourseID, s.lockTTL)
	if err != nil {
		return "", err
	}
	if !locked {
		return "", util.ErrGenerationInFlight
	}

	outline, err := s.generateOutline(ctx, req)
	if err != nil {
		_ = s.state.ReleaseLock(ctx, req.UserID, req.CourseID)
		monitoring.GenerationRuns.WithLabelValues("failed").Inc()
		return "", err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.running[req.CourseID] = generationRun{cancel: cancel, userID: req.UserID}
	s.mu.Unlock()

	monitoring.GenerationRuns.WithLabelValues("started").Inc()
	logger.Log.Info("course generation started",
		zap.String("courseId", req.CourseID),
		zap.Uint("userId", req.UserID),
		zap.String("topic", req.Topic),
		zap.Int("modules", len(outline.Modules)),
	)

	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			delete(s.running, req.CourseID)
			s.mu.Unlock()
			_ = s.state.ReleaseLock(context.Background(), req.UserID, req.CourseID)
		}()
		s.runGeneration(runCtx, req, outline)
	}()

	return req.CourseID, nil
}

// CancelGeneration 取消进行中的运行。未开始的单元被跳过，
// 已持久化的单元保持可查询，不回滚。只有发起运行的用户可以取消，
// 其他用户视同没有进行中的任务。
func (s *CourseGenerationService) CancelGeneration(courseID string, userID uint) error {
	s.mu.Lock()
	run, ok := s.running[courseID]
	s.mu.Unlock()
	if !ok || run.userID != userID {
		return util.ErrGenerationNotActive
	}
	run.cancel()
	return nil
}

// Status 派生状态查询。结构上仍在 generating 但带失败标记时报告 failed。
func (s *CourseGenerationService) Status(ctx context.Context, courseID string, userID uint) (*StatusResponse, error) {
	status, err := s.store.ComputeStatus(courseID, userID)
	if err != nil {
		return nil, err
	}

	if status == model.StatusGenerating {
		if reason, failed, stateErr := s.state.FailureReason(ctx, courseID); stateErr == nil && failed {
			return &StatusResponse{Status: model.StatusFailed, Reason: reason}, nil
		}
	}

	return &StatusResponse{Status: status}, nil
}

func (s *CourseGenerationService) generateOutline(ctx context.Context, req GenerationRequest) (*CourseOutline, error) {
	ctx, span := tracing.Tracer.Start(ctx, "generation.outline")
	defer span.End()
	return s.outlines.Generate(ctx, req.Topic, req.Difficulty, req.DurationWeeks)
}

// runGeneration 后台主循环。只有课程聚合根本身创建失败才算运行失败；
// 单元/章节级别的问题都被吸收为降级或跳过。
func (s *CourseGenerationService) runGeneration(ctx context.Context, req GenerationRequest, outline *CourseOutline) {
	image := s.images.Resolve(ctx, outline.Title, outline.Description)

	course, err := s.store.FindOrCreateCourse(&model.Course{
		UUIDBase:      model.UUIDBase{ID: req.CourseID},
		UserID:        req.UserID,
		Title:         outline.Title,
		Description:   outline.Description,
		Image:         image,
		Topic:         req.Topic,
		Difficulty:    req.Difficulty,
		DurationWeeks: req.DurationWeeks,
	})
	if err != nil {
		s.markFailed(req.CourseID, fmt.Sprintf("could not create course record: %v", err))
		return
	}

	// 幂等续跑：课程已有 N 个单元时跳过前 N 个模块
	existingUnits, err := s.store.UnitCount(course.ID)
	if err != nil {
		logger.Log.Error("unit count query failed, assuming fresh run",
			zap.String("courseId", course.ID),
			zap.Error(err),
		)
		existingUnits = 0
	}

	persisted := existingUnits
	for i, module := range outline.Modules {
		if int64(i) < existingUnits {
			continue
		}

		select {
		case <-ctx.Done():
			monitoring.GenerationRuns.WithLabelValues("cancelled").Inc()
			logger.Log.Info("course generation cancelled",
				zap.String("courseId", course.ID),
				zap.Int("persistedUnits", int(persisted)),
			)
			return
		default:
		}

		if s.processModule(ctx, course, outline, module, i) {
			persisted++
		}
	}

	if persisted == 0 {
		s.markFailed(course.ID, "no units could be persisted")
		return
	}
	// 大纲模块数少于周数时课程永远到不了 completed，标记失败让轮询方看到终态
	if persisted < int64(req.DurationWeeks) {
		s.markFailed(course.ID, fmt.Sprintf("only %d of %d units were generated", persisted, req.DurationWeeks))
		return
	}

	monitoring.GenerationRuns.WithLabelValues("completed").Inc()
	_ = s.state.ClearFailed(context.Background(), course.ID)
	logger.Log.Info("course generation completed",
		zap.String("courseId", course.ID),
		zap.Int64("units", persisted),
	)
}

// processModule 展开、充实并持久化一个单元。返回是否成功写入单元。
// 先写单元再写章节，读者按单元增量看到内容。
func (s *CourseGenerationService) processModule(ctx context.Context, course *model.Course, outline *CourseOutline, module ModuleSpec, position int) bool {
	ctx, span := tracing.Tracer.Start(ctx, "generation.unit")
	defer span.End()

	specs := s.chapters.Expand(ctx, outline, module)
	enriched := s.enrichAll(ctx, specs)

	unit := &model.Unit{
		CourseID: course.ID,
		Name:     module.Title,
		Week:     module.Week,
		Position: position,
	}
	if err := s.store.CreateUnit(unit); err != nil {
		logger.Log.Error("unit persistence failed, advancing to next module",
			zap.String("courseId", course.ID),
			zap.String("unit", module.Title),
			zap.Error(err),
		)
		return false
	}

	for j, chapter := range enriched {
		record := &model.Chapter{
			UnitID:          unit.ID,
			Name:            chapter.Name,
			ReadingMaterial: chapter.ReadingMaterial,
			VideoLink:       chapter.VideoLink,
			Position:        j,
		}
		if err := s.store.CreateChapter(record); err != nil {
			// 单章节失败只跳过该章节，同单元的其余章节继续写入
			logger.Log.Error("chapter persistence failed, skipping chapter",
				zap.String("courseId", course.ID),
				zap.String("chapter", chapter.Name),
				zap.Error(err),
			)
		}
	}
	return true
}

// enrichAll 单元内章节并发充实，受并发上限约束，结果按原始下标回填，
// 章节之间没有共享可变状态。
func (s *CourseGenerationService) enrichAll(ctx context.Context, specs []ChapterSpec) []EnrichedChapter {
	results := make([]EnrichedChapter, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			results[i] = s.chapters.Enrich(gctx, spec)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *CourseGenerationService) markFailed(courseID, reason string) {
	monitoring.GenerationRuns.WithLabelValues("failed").Inc()
	_ = s.state.MarkFailed(context.Background(), courseID, reason, 24*time.Hour)
	logger.Log.Error("course generation failed",
		zap.String("courseId", courseID),
		zap.String("reason", reason),
	)
}
