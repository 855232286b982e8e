package channel

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"
)

func TestOpen_EmptyAddress(t *testing.T) {
	if _, err := Open("", Config{}); err == nil {
		t.Fatalf("expected error for empty address")
	}
}

func TestOpen_SerialDeviceMissing(t *testing.T) {
	if _, err := Open(t.TempDir()+"/ttyNONE", Config{}); err == nil {
		t.Fatalf("expected error for missing device")
	}
}

func TestOpen_TCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	msg := []byte{0xB5, 0x62, 0x06, 0x24}
	done := make(chan struct{})
	defer close(done)

	// 对端：原样回写收到的数据，保持连接直到测试结束
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, len(msg))
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		_, _ = conn.Write(buf)
		<-done
	}()

	ch, err := Open("tcp://"+ln.Addr().String(), Config{ReadTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ch.Close()

	if _, err := ch.Write(msg); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := make([]byte, len(msg))
	off := 0
	deadline := time.Now().Add(2 * time.Second)
	for off < len(got) && time.Now().Before(deadline) {
		n, err := ch.Read(got[off:])
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		off += n
	}
	if !bytes.Equal(got[:off], msg) {
		t.Fatalf("echo = % X, expected % X", got[:off], msg)
	}

	// 暂无数据时到期返回空读且无错误
	n, err := ch.Read(make([]byte, 8))
	if err != nil || n != 0 {
		t.Fatalf("idle read = (%d, %v), expected (0, nil)", n, err)
	}
}

func TestOpen_TCP_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := Open("tcp://"+addr, Config{DialTimeout: time.Second}); err == nil {
		t.Fatalf("expected dial error")
	}
}
