package repository

import (
	"course_gen_backend/internal/model"
	"errors"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

// FindOrCreateCourse 按 (user_id, id) 幂等创建课程聚合根。
// 并发创建同一课程时主键冲突由数据库保证，冲突后重新查询返回已有记录。
func (r *CourseRepository) FindOrCreateCourse(course *model.Course) (*model.Course, error) {
	var existing model.Course
	err := r.DB.Where("id = ? AND user_id = ?", course.ID, course.UserID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if createErr := r.DB.Create(course).Error; createErr != nil {
		// 另一个运行可能刚刚插入了同一主键
		if retryErr := r.DB.Where("id = ? AND user_id = ?", course.ID, course.UserID).
			First(&existing).Error; retryErr == nil {
			return &existing, nil
		}
		return nil, createErr
	}
	return course, nil
}

func (r *CourseRepository) CreateUnit(unit *model.Unit) error {
	return r.DB.Create(unit).Error
}

func (r *CourseRepository) CreateChapter(chapter *model.Chapter) error {
	return r.DB.Create(chapter).Error
}

// FindByIDAndUser 返回完整课程聚合（单元、章节均按位置排序）
func (r *CourseRepository) FindByIDAndUser(id string, userID uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Units", func(db *gorm.DB) *gorm.DB {
			return db.Order("units.position ASC")
		}).
		Preload("Units.Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("chapters.position ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&course).Error
	return &course, err
}

func (r *CourseRepository) ListByUser(userID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&courses).Error
	return courses, err
}

// UnitCount 课程当前已持久化的单元数
func (r *CourseRepository) UnitCount(courseID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Unit{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

// ComputeStatus 派生生成状态：单元数达到课程周数且每个单元至少一个章节
// 为 completed，否则 generating。大纲模块多于周数时多出的单元不影响判定。
// 课程不存在时返回错误。
func (r *CourseRepository) ComputeStatus(courseID string, userID uint) (model.GenerationStatus, error) {
	var course model.Course
	if err := r.DB.Select("id", "duration_weeks").Where("id = ? AND user_id = ?", courseID, userID).
		First(&course).Error; err != nil {
		return "", err
	}

	var unitCount int64
	if err := r.DB.Model(&model.Unit{}).Where("course_id = ?", courseID).
		Count(&unitCount).Error; err != nil {
		return "", err
	}
	if unitCount == 0 || unitCount < int64(course.DurationWeeks) {
		return model.StatusGenerating, nil
	}

	var emptyUnits int64
	err := r.DB.Model(&model.Unit{}).
		Where("course_id = ?", courseID).
		Where("NOT EXISTS (SELECT 1 FROM chapters WHERE chapters.unit_id = units.id AND chapters.deleted_at IS NULL)").
		Count(&emptyUnits).Error
	if err != nil {
		return "", err
	}
	if emptyUnits > 0 {
		return model.StatusGenerating, nil
	}

	return model.StatusCompleted, nil
}

// ListGenerating 查找长时间停留在 generating 的课程（供运维脚本重新触发）
func (r *CourseRepository) ListGenerating(olderThanMinutes int) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.
		Where("created_at < NOW() - INTERVAL ? MINUTE", olderThanMinutes).
		Where("NOT EXISTS (SELECT 1 FROM units WHERE units.course_id = courses.id AND units.deleted_at IS NULL)").
		Find(&courses).Error
	return courses, err
}
