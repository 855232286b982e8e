package ubx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	ErrSyncTimeout = errors.New("sync timeout")
	ErrReadTimeout = errors.New("read timeout")
	ErrBadLength   = errors.New("bad length")
)

const (
	// DefaultReadBudget 单个读取循环允许的底层Read调用次数上限
	DefaultReadBudget = 4096

	// DefaultFrameTimeout 获取一个完整帧的墙钟时间上限
	DefaultFrameTimeout = 2 * time.Second
)

// Reader UBX流式帧读取器
// 在夹杂噪声、可能分片慢速到达的字节流中定位同步字节并解出完整帧。
// 两重上界：读取预算限制每个读取循环的Read次数（决定可跳过的噪声量），
// 帧超时限制单次操作的墙钟时间（配合通道自身的读超时对付死通道）。
// Reader本身不做日志，失败原因由调用方的重试层统一上报。
type Reader struct {
	src     io.Reader
	budget  int
	timeout time.Duration
}

// NewReader 创建帧读取器
// budget<=0使用DefaultReadBudget，timeout<=0使用DefaultFrameTimeout。
func NewReader(src io.Reader, budget int, timeout time.Duration) *Reader {
	if budget <= 0 {
		budget = DefaultReadBudget
	}
	if timeout <= 0 {
		timeout = DefaultFrameTimeout
	}
	return &Reader{src: src, budget: budget, timeout: timeout}
}

// Sync 逐字节扫描直到按顺序匹配到两个同步字节
// 匹配推进游标；任何不匹配把游标重置为0（已消费的字节被丢弃，从下一字节继续）。
// 预算或超时耗尽返回ErrSyncTimeout，通道错误立即失败。
func (r *Reader) Sync() error {
	return r.syncUntil(time.Now().Add(r.timeout))
}

// ReadFrame 同步后读出一个完整帧并验证校验和
// 读取顺序：class(1) + id(1) + len(2,小端) + payload(len) + ck(2)，
// 校验和覆盖class到payload，不含同步字节。
func (r *Reader) ReadFrame() (Frame, error) {
	deadline := time.Now().Add(r.timeout)

	if err := r.syncUntil(deadline); err != nil {
		return Frame{}, err
	}

	var d digest
	hdr, err := r.readExact(4, deadline)
	if err != nil {
		return Frame{}, err
	}
	d.add(hdr)

	plen := int(binary.LittleEndian.Uint16(hdr[2:4]))
	if plen > MaxPayloadLen {
		return Frame{}, ErrBadLength
	}

	payload, err := r.readExact(plen, deadline)
	if err != nil {
		return Frame{}, err
	}
	d.add(payload)

	ck, err := r.readExact(2, deadline)
	if err != nil {
		return Frame{}, err
	}
	ckA, ckB := d.sum()
	if ck[0] != ckA || ck[1] != ckB {
		return Frame{}, ErrChecksumMismatch
	}

	return Frame{Class: hdr[0], ID: hdr[1], Payload: payload}, nil
}

func (r *Reader) syncUntil(deadline time.Time) error {
	var one [1]byte
	matched := 0
	for attempt := 0; attempt < r.budget; attempt++ {
		if !time.Now().Before(deadline) {
			return ErrSyncTimeout
		}
		n, err := r.src.Read(one[:])
		if n > 0 {
			switch {
			case matched == 0 && one[0] == Sync1:
				matched = 1
			case matched == 1 && one[0] == Sync2:
				return nil
			default:
				matched = 0
			}
		}
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
	}
	return ErrSyncTimeout
}

// readExact 累积读取直至恰好n字节；预算或超时耗尽返回ErrReadTimeout
func (r *Reader) readExact(n int, deadline time.Time) ([]byte, error) {
	buf := make([]byte, n)
	off := 0
	for attempt := 0; attempt < r.budget && off < n; attempt++ {
		if !time.Now().Before(deadline) {
			return nil, ErrReadTimeout
		}
		m, err := r.src.Read(buf[off:])
		off += m
		if off == n {
			return buf, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
	}
	if off == n {
		return buf, nil
	}
	return nil, ErrReadTimeout
}
