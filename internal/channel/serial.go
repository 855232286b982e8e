package channel

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// serialChannel 基于tarm/serial的串口通道
type serialChannel struct {
	port *serial.Port
}

// openSerial 打开并配置串口：固定波特率、无校验位、读带超时
// 打开后冲掉缓冲区，避免解析到上次会话残留的字节。
func openSerial(device string, cfg Config) (Channel, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        cfg.Baud,
		Parity:      serial.ParityNone,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	if err := port.Flush(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("flush serial %s: %w", device, err)
	}
	return &serialChannel{port: port}, nil
}

// Read 读串口数据
// tarm在posix读超时时返回io.EOF，这里转换为无错误的空读以符合通道契约。
func (s *serialChannel) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if n == 0 && err == io.EOF {
		return 0, nil
	}
	return n, err
}

func (s *serialChannel) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *serialChannel) Close() error {
	return s.port.Close()
}
