// 手动恢复停滞的课程生成脚本
//
// 服务进程重启会丢失内存中的生成任务，数据库里会留下没有任何单元的课程。
// 此脚本找出这些课程并按原始参数重新触发生成（生成本身是幂等的，
// 已写入的单元会被跳过）。
//
// 用法: go run scripts/resume_stalled.go
package main

import (
	"context"
	"course_gen_backend/internal/config"
	"course_gen_backend/internal/model"
	"course_gen_backend/internal/repository"
	"course_gen_backend/internal/service"
	"course_gen_backend/pkg/database"
	"course_gen_backend/pkg/logger"
	"log"
	"time"
)

const stalledAfterMinutes = 60

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Redis连接失败: %v", err)
	}

	courseRepo := repository.NewCourseRepository(db)
	stateRepo := repository.NewGenerationStateRepository(rdb)

	aiService := service.NewAIService(cfg.AI)
	lookup := service.NewLookupService(cfg.YouTube, cfg.Unsplash)
	storage := service.NewStorageService(cfg)
	generation := service.NewCourseGenerationService(
		service.NewOutlineService(aiService),
		service.NewChapterService(aiService, lookup, cfg.Generation),
		service.NewImageService(lookup, storage, cfg.Generation),
		courseRepo,
		stateRepo,
		cfg.Generation,
	)

	stalled, err := courseRepo.ListGenerating(stalledAfterMinutes)
	if err != nil {
		log.Fatalf("查询停滞课程失败: %v", err)
	}
	if len(stalled) == 0 {
		log.Println("没有停滞的课程，无需处理")
		return
	}

	log.Printf("找到 %d 个停滞课程，开始逐个恢复...", len(stalled))
	for _, course := range stalled {
		resumeCourse(generation, course)
	}
	log.Println("完成！")
}

func resumeCourse(generation *service.CourseGenerationService, course model.Course) {
	ctx := context.Background()

	id, err := generation.StartGeneration(ctx, service.GenerationRequest{
		CourseID:      course.ID,
		UserID:        course.UserID,
		Topic:         course.Topic,
		Difficulty:    course.Difficulty,
		DurationWeeks: course.DurationWeeks,
	})
	if err != nil {
		log.Printf("课程 %s 恢复失败: %v", course.ID, err)
		return
	}

	// 生成在后台执行，轮询状态直到离开 generating 或超时
	deadline := time.Now().Add(30 * time.Minute)
	for time.Now().Before(deadline) {
		time.Sleep(10 * time.Second)
		status, err := generation.Status(ctx, id, course.UserID)
		if err != nil {
			log.Printf("课程 %s 状态查询失败: %v", id, err)
			return
		}
		if status.Status != model.StatusGenerating {
			log.Printf("课程 %s 恢复结束，状态: %s", id, status.Status)
			return
		}
	}
	log.Printf("课程 %s 恢复超时，请稍后重试", id)
}
