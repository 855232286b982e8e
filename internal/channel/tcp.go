package channel

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// tcpChannel 经TCP桥接的串口通道
type tcpChannel struct {
	conn        net.Conn
	readTimeout time.Duration
}

// openTCP 连接串口转发服务
func openTCP(hostport string, cfg Config) (Channel, error) {
	conn, err := net.DialTimeout("tcp", hostport, cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", hostport, err)
	}
	return &tcpChannel{conn: conn, readTimeout: cfg.ReadTimeout}, nil
}

// Read 带单次超时地读取
// 到期未见数据时返回无错误的空读，超时语义交给上层读取预算处理。
func (t *tcpChannel) Read(p []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(p)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return n, nil
		}
	}
	return n, err
}

func (t *tcpChannel) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

func (t *tcpChannel) Close() error {
	return t.conn.Close()
}
