package exchange

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// SendLimiter 基于Token Bucket的发送节流器
// 半双工串口链路上重发过快会把接收机的输入缓冲冲爆，
// 这里按稳定速率为每次发送（含重发）排队放行。
type SendLimiter struct {
	limiter       *rate.Limiter
	ratePerSec    int
	burst         int
	waitedCount   atomic.Int64
	canceledCount atomic.Int64
}

// NewSendLimiter 创建发送节流器
// ratePerSec: 每秒允许的发送次数（稳定速率）
// burst: 突发容量（桶的大小），首发不等待
func NewSendLimiter(ratePerSec int, burst int) *SendLimiter {
	if ratePerSec <= 0 {
		ratePerSec = 5 // 默认每秒5次发送
	}
	if burst <= 0 {
		burst = 1 // 默认仅首发免排队
	}

	return &SendLimiter{
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), burst),
		ratePerSec: ratePerSec,
		burst:      burst,
	}
}

// Wait 阻塞直到允许下一次发送（可被ctx取消）
func (l *SendLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		l.canceledCount.Add(1)
		return err
	}
	l.waitedCount.Add(1)
	return nil
}

// WaitedCount 放行的发送次数（累计）
func (l *SendLimiter) WaitedCount() int64 {
	return l.waitedCount.Load()
}

// CanceledCount 等待期间被取消的次数（累计）
func (l *SendLimiter) CanceledCount() int64 {
	return l.canceledCount.Load()
}

// Stats 获取统计信息
func (l *SendLimiter) Stats() SendLimiterStats {
	return SendLimiterStats{
		RatePerSecond: l.ratePerSec,
		Burst:         l.burst,
		WaitedTotal:   l.WaitedCount(),
		CanceledTotal: l.CanceledCount(),
	}
}

// SendLimiterStats 发送节流器统计信息
type SendLimiterStats struct {
	RatePerSecond int   `json:"rate_per_second"`
	Burst         int   `json:"burst"`
	WaitedTotal   int64 `json:"waited_total"`
	CanceledTotal int64 `json:"canceled_total"`
}
