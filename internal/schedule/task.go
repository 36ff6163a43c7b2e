package schedule

import (
	"context"
	"log/slog"
	"time"
)

type Task interface {
	Run(ctx context.Context) error
	Name() string
}

// Every 立即执行一次, 之后每隔 interval 执行, 直到 ctx 取消; 任务失败只记录日志
func Every(ctx context.Context, task Task, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		runOnce(ctx, task)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runOnce(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduled task panic", "task", task.Name(), "panic", r)
		}
	}()
	start := time.Now()
	if err := task.Run(ctx); err != nil {
		slog.Error("scheduled task failed", "task", task.Name(), "error", err)
		return
	}
	slog.Debug("scheduled task done", "task", task.Name(), "cost", time.Since(start))
}
