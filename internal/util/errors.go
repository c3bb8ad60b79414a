package util

import "errors"

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrCourseNotFound      = errors.New("course not found")
	ErrGenerationInFlight  = errors.New("generation already in progress for this course")
	ErrGenerationNotActive = errors.New("no active generation for this course")
)
