package controller

import (
	"course_gen_backend/internal/model"
	"course_gen_backend/internal/service"
	"course_gen_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CourseController struct {
	CourseService     *service.CourseService
	GenerationService *service.CourseGenerationService
}

func NewCourseController(courseService *service.CourseService, generationService *service.CourseGenerationService) *CourseController {
	return &CourseController{
		CourseService:     courseService,
		GenerationService: generationService,
	}
}

// GenerateCourseRequest 课程生成请求
// swagger:model GenerateCourseRequest
type GenerateCourseRequest struct {
	Topic         string `json:"topic" binding:"required"`
	Difficulty    string `json:"difficulty" binding:"required,oneof=beginner intermediate advanced"`
	DurationWeeks int    `json:"durationWeeks" binding:"required,min=1,max=52"`
	CourseID      string `json:"courseId"` // 可选，携带已有课程ID可续跑中断的生成
}

// Generate godoc
// @Summary 生成课程
// @Description 根据主题、难度和周数生成完整课程，大纲同步生成，内容异步持久化
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body GenerateCourseRequest true "生成参数"
// @Success 202 {object} util.Response{data=object} "已受理"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "该课程已有生成任务在运行"
// @Failure 502 {object} util.Response "无法生成课程"
// @Router /api/courses/generate [post]
func (c *CourseController) Generate(ctx *gin.Context) {
	var req GenerateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID, err := c.GenerationService.StartGeneration(ctx.Request.Context(), service.GenerationRequest{
		CourseID:      req.CourseID,
		UserID:        claims.UserID,
		Topic:         req.Topic,
		Difficulty:    model.Difficulty(req.Difficulty),
		DurationWeeks: req.DurationWeeks,
	})
	if err != nil {
		switch {
		case errors.Is(err, util.ErrGenerationInFlight):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, service.ErrOutlineParse), errors.Is(err, service.ErrGenerationService):
			util.Error(ctx, http.StatusBadGateway, "Unable to generate course: "+err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Accepted(ctx, gin.H{"courseId": courseID})
}

// Status godoc
// @Summary 查询课程生成状态
// @Description 派生状态：generating / completed / failed
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=service.StatusResponse} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id}/status [get]
func (c *CourseController) Status(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	status, err := c.GenerationService.Status(ctx.Request.Context(), ctx.Param("id"), claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, status)
}

// Get godoc
// @Summary 获取课程详情
// @Description 返回完整课程聚合，生成中时返回当前已写入的部分
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	course, err := c.CourseService.GetCourse(ctx.Param("id"), claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, course)
}

// List godoc
// @Summary 获取当前用户的课程列表
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Router /api/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	courses, err := c.CourseService.ListCourses(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, courses)
}

// CancelGeneration godoc
// @Summary 取消进行中的课程生成
// @Description 已持久化的单元保留，未开始的单元不再生成
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response "已取消"
// @Failure 404 {object} util.Response "没有进行中的生成任务"
// @Router /api/courses/{id}/generation [delete]
func (c *CourseController) CancelGeneration(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.GenerationService.CancelGeneration(ctx.Param("id"), claims.UserID); err != nil {
		if errors.Is(err, util.ErrGenerationNotActive) {
			util.Error(ctx, http.StatusNotFound, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"cancelled": true})
}
