package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// GenerationStateRepository 管理生成运行的跨进程状态：
//   - 同一 (userID, courseID) 的运行互斥锁（SETNX），避免并发重复生成
//   - 运行失败标记，弥补派生状态无法区分 "失败" 和 "刚开始" 的缺口
type GenerationStateRepository struct {
	RDB *redis.Client
}

func NewGenerationStateRepository(rdb *redis.Client) *GenerationStateRepository {
	return &GenerationStateRepository{RDB: rdb}
}

func lockKey(userID uint, courseID string) string {
	return fmt.Sprintf("generation:lock:%d:%s", userID, courseID)
}

func failKey(courseID string) string {
	return fmt.Sprintf("generation:failed:%s", courseID)
}

// AcquireLock 返回 false 表示同一课程已有运行在进行
func (r *GenerationStateRepository) AcquireLock(ctx context.Context, userID uint, courseID string, ttl time.Duration) (bool, error) {
	return r.RDB.SetNX(ctx, lockKey(userID, courseID), time.Now().Unix(), ttl).Result()
}

func (r *GenerationStateRepository) ReleaseLock(ctx context.Context, userID uint, courseID string) error {
	return r.RDB.Del(ctx, lockKey(userID, courseID)).Err()
}

// MarkFailed 记录失败原因。带 TTL，过期后状态回落为 generating，
// 与锁一致的生命周期避免陈旧标记长期残留。
func (r *GenerationStateRepository) MarkFailed(ctx context.Context, courseID, reason string, ttl time.Duration) error {
	return r.RDB.Set(ctx, failKey(courseID), reason, ttl).Err()
}

func (r *GenerationStateRepository) ClearFailed(ctx context.Context, courseID string) error {
	return r.RDB.Del(ctx, failKey(courseID)).Err()
}

// FailureReason 返回失败原因；无标记时 ok 为 false
func (r *GenerationStateRepository) FailureReason(ctx context.Context, courseID string) (string, bool, error) {
	reason, err := r.RDB.Get(ctx, failKey(courseID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return reason, true, nil
}
