package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ScanProgress 表示一次扫描任务的进度快照
type ScanProgress struct {
	RunID       string  `json:"runId"`
	Mode        string  `json:"mode"` // full / repair
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	Percent     float64 `json:"percent"`
	CurrentFile string  `json:"currentFile,omitempty"`
	ElapsedMS   int64   `json:"elapsedMs"`
	Done        bool    `json:"done"`
	UpdatedAt   int64   `json:"updatedAt"` // unix seconds
}

const scanProgressKey = "scan:progress"

// 进度快照保留24小时，足够扫描结束后查询结果
const scanProgressTTL = 24 * time.Hour

// PublishScanProgress 将扫描进度写入Redis，供进度查询接口读取
func PublishScanProgress(ctx context.Context, progress *ScanProgress) error {
	if RedisClient == nil {
		return nil
	}

	progress.UpdatedAt = time.Now().Unix()
	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal scan progress: %w", err)
	}

	if err := RedisClient.Set(ctx, scanProgressKey, payload, scanProgressTTL).Err(); err != nil {
		return fmt.Errorf("failed to set scan progress: %w", err)
	}
	return nil
}

// GetScanProgress 读取最近一次扫描进度，没有记录时返回nil
func GetScanProgress(ctx context.Context) (*ScanProgress, error) {
	if RedisClient == nil {
		return nil, nil
	}

	payload, err := RedisClient.Get(ctx, scanProgressKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scan progress: %w", err)
	}

	var progress ScanProgress
	if err := json.Unmarshal([]byte(payload), &progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scan progress: %w", err)
	}
	return &progress, nil
}
