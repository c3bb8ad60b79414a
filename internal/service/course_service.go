package service

import (
	"course_gen_backend/internal/model"
	"course_gen_backend/internal/repository"
	"course_gen_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// CourseService 课程查询侧：读取已持久化的课程聚合
type CourseService struct {
	CourseRepo *repository.CourseRepository
}

func NewCourseService(courseRepo *repository.CourseRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo}
}

// GetCourse 返回完整课程（单元、章节按位置排序）。
// 生成尚未完成时返回的是当前已写入的部分内容。
func (s *CourseService) GetCourse(id string, userID uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByIDAndUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *CourseService) ListCourses(userID uint) ([]model.Course, error) {
	return s.CourseRepo.ListByUser(userID)
}
