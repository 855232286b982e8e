// Package exchange 实现与接收机之间的请求/应答交换。
//
// 链路是半双工的：写出一帧请求，同步并读取一帧应答，校验是否匹配，
// 不匹配或读取失败则整帧重发，发送次数受限且受节流。协议层的所有
// 瞬时故障（噪声、坏校验、串扰应答）都被重试循环吸收，调用方只看到
// 最终成败。
package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/gnss-config/internal/protocol/ubx"
)

// ErrUnexpectedReply 收到了完整有效帧，但与期望的应答不符
var ErrUnexpectedReply = errors.New("unexpected reply")

// RetryError 所有发送次数耗尽仍未得到有效应答
type RetryError struct {
	Op       string // 操作名: set / poll / save
	Attempts int    // 实际发送次数
	Last     error  // 最后一次失败的原因
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s: no valid reply after %d attempts: %v", e.Op, e.Attempts, e.Last)
}

func (e *RetryError) Unwrap() error { return e.Last }

// Config 交换器配置
type Config struct {
	MaxAttempts  int           // 单个操作的最大发送次数
	ReadBudget   int           // 每次读帧允许消耗的Read调用数
	FrameTimeout time.Duration // 单帧读取的墙钟上限
	SendRate     int           // 每秒允许的发送次数
	SendBurst    int           // 发送突发容量
}

// DefaultConfig 默认交换器配置
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		ReadBudget:   ubx.DefaultReadBudget,
		FrameTimeout: ubx.DefaultFrameTimeout,
		SendRate:     5,
		SendBurst:    1,
	}
}

// Stats 交换器统计信息
type Stats struct {
	SentTotal       int64 `json:"sent_total"`       // 成功写出的请求帧数
	RetriesTotal    int64 `json:"retries_total"`    // 重发次数
	ChecksumErrors  int64 `json:"checksum_errors"`  // 校验和不符的应答帧数
	SyncTimeouts    int64 `json:"sync_timeouts"`    // 同步/读取超时次数
	MismatchedTotal int64 `json:"mismatched_total"` // 完整但不匹配的应答帧数
	NaksTotal       int64 `json:"naks_total"`       // 其中ACK-NAK的帧数
}

// Exchange 请求/应答交换器
// 非并发安全：交换器持有通道的独占使用权，由单一调用方顺序驱动。
type Exchange struct {
	ch      io.ReadWriter
	reader  *ubx.Reader
	limiter *SendLimiter
	logger  *zap.Logger
	cfg     Config
	stats   Stats
}

// New 创建交换器
func New(ch io.ReadWriter, cfg Config, logger *zap.Logger) *Exchange {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exchange{
		ch:      ch,
		reader:  ubx.NewReader(ch, cfg.ReadBudget, cfg.FrameTimeout),
		limiter: NewSendLimiter(cfg.SendRate, cfg.SendBurst),
		logger:  logger,
		cfg:     cfg,
	}
}

// Set 下发导航动力学配置，等待接收机的确认应答
func (e *Exchange) Set(ctx context.Context, p ubx.Profile) error {
	payload, err := p.Payload()
	if err != nil {
		return err
	}
	req := ubx.NewFrame(ubx.ClassCfg, ubx.IDCfgNav5, payload)
	want := ubx.AckFor(ubx.ClassCfg, ubx.IDCfgNav5)
	_, err = e.do(ctx, "set", req, func(reply ubx.Frame) bool {
		return reply.Equal(want)
	})
	return err
}

// Poll 回读接收机当前的导航动力学配置
// 应答是接收机回送的配置帧而非ACK，匹配只看class/id，
// 载荷原样返回，由调用方决定是否解码。
func (e *Exchange) Poll(ctx context.Context) (ubx.Frame, error) {
	req := ubx.NewFrame(ubx.ClassCfg, ubx.IDCfgNav5, nil)
	return e.do(ctx, "poll", req, func(reply ubx.Frame) bool {
		return reply.Class == ubx.ClassCfg && reply.ID == ubx.IDCfgNav5
	})
}

// Save 将接收机当前配置写入非易失存储
func (e *Exchange) Save(ctx context.Context) error {
	req := ubx.NewFrame(ubx.ClassCfg, ubx.IDCfgCfg, ubx.SavePayload())
	want := ubx.AckFor(ubx.ClassCfg, ubx.IDCfgCfg)
	_, err := e.do(ctx, "save", req, func(reply ubx.Frame) bool {
		return reply.Equal(want)
	})
	return err
}

// Stats 返回累计统计信息的快照
func (e *Exchange) Stats() Stats {
	return e.stats
}

// do 发送请求并等待匹配的应答，失败时整帧重发直到次数耗尽
func (e *Exchange) do(ctx context.Context, op string, req ubx.Frame, match func(ubx.Frame) bool) (ubx.Frame, error) {
	raw := req.Encode()
	var last error

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return ubx.Frame{}, fmt.Errorf("%s aborted: %w", op, err)
		}
		if attempt > 1 {
			e.stats.RetriesTotal++
		}

		if _, err := e.ch.Write(raw); err != nil {
			last = fmt.Errorf("write: %w", err)
			e.logger.Debug("Write failed",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}
		e.stats.SentTotal++

		reply, err := e.reader.ReadFrame()
		if err != nil {
			last = err
			switch {
			case errors.Is(err, ubx.ErrChecksumMismatch):
				e.stats.ChecksumErrors++
			case errors.Is(err, ubx.ErrSyncTimeout), errors.Is(err, ubx.ErrReadTimeout):
				e.stats.SyncTimeouts++
			}
			e.logger.Debug("Read failed",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		if !match(reply) {
			last = fmt.Errorf("%w: %s", ErrUnexpectedReply, reply)
			e.stats.MismatchedTotal++
			if reply.IsNak() {
				e.stats.NaksTotal++
				e.logger.Warn("Receiver rejected request",
					zap.String("op", op),
					zap.Int("attempt", attempt),
				)
			} else {
				e.logger.Debug("Reply mismatched",
					zap.String("op", op),
					zap.Int("attempt", attempt),
					zap.String("reply", reply.String()),
				)
			}
			continue
		}

		e.logger.Info("Exchange succeeded",
			zap.String("op", op),
			zap.Int("attempt", attempt),
		)
		return reply, nil
	}

	return ubx.Frame{}, &RetryError{Op: op, Attempts: e.cfg.MaxAttempts, Last: last}
}
