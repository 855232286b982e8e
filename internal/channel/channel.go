// Package channel 封装与接收机之间的原始字节通道。
// 支持本地串口设备与tcp://host:port形式的串口转发服务（如ser2net）。
package channel

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Channel 接收机字节通道，一次运行期间独占使用
// 契约：Read可以返回少于请求的字节数，也可以在暂时无数据时
// 无错误地返回0字节；整体超时由上层的读取预算与帧超时控制。
type Channel interface {
	io.ReadWriteCloser
}

// Config 通道配置
type Config struct {
	Baud        int           // 串口波特率
	ReadTimeout time.Duration // 单次Read的阻塞上限
	DialTimeout time.Duration // TCP连接建立超时
}

const (
	defaultBaud        = 9600
	defaultReadTimeout = 100 * time.Millisecond
	defaultDialTimeout = 5 * time.Second

	// tcpScheme 串口转发服务的地址前缀
	tcpScheme = "tcp://"
)

// Open 打开通道
// addr为串口设备路径（如/dev/ttyUSB0）或tcp://host:port地址。
// 打开失败属于致命错误，由调用方终止本次运行。
func Open(addr string, cfg Config) (Channel, error) {
	if addr == "" {
		return nil, fmt.Errorf("empty device address")
	}
	if cfg.Baud <= 0 {
		cfg.Baud = defaultBaud
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}

	if strings.HasPrefix(addr, tcpScheme) {
		return openTCP(strings.TrimPrefix(addr, tcpScheme), cfg)
	}
	return openSerial(addr, cfg)
}
