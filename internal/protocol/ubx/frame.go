package ubx

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// UBX协议帧格式常量
const (
	// 同步字节
	Sync1 = 0xB5
	Sync2 = 0x62

	// 消息类
	ClassAck = 0x05 // ACK 应答类
	ClassCfg = 0x06 // CFG 配置类

	// 消息ID
	IDAckNak  = 0x00 // ACK-NAK 拒绝应答
	IDAckAck  = 0x01 // ACK-ACK 确认应答
	IDCfgCfg  = 0x09 // CFG-CFG 配置保存/清除/加载
	IDCfgNav5 = 0x24 // CFG-NAV5 导航引擎设置

	// 帧开销：sync(2) + class(1) + id(1) + len(2) + ck(2)
	frameOverhead = 8

	// 最大载荷长度（超出视为畸形长度字段，防止按噪声长度空读）
	MaxPayloadLen = 1024
)

// Frame UBX协议帧
// 格式：b5 62 + class(1) + id(1) + len(2,小端) + payload(var) + ckA(1) + ckB(1)
// 帧相等仅比较class、id、payload，长度与校验和为派生值。
type Frame struct {
	Class   byte
	ID      byte
	Payload []byte
}

// NewFrame 创建帧，payload会被复制一份
func NewFrame(class, id byte, payload []byte) Frame {
	f := Frame{Class: class, ID: id}
	if len(payload) > 0 {
		f.Payload = make([]byte, len(payload))
		copy(f.Payload, payload)
	}
	return f
}

// AckFor 构造确认(class,id)请求的ACK-ACK帧，载荷为被确认消息的class+id
func AckFor(class, id byte) Frame {
	return Frame{Class: ClassAck, ID: IDAckAck, Payload: []byte{class, id}}
}

// Encode 将帧编码为完整字节序列（含同步字节与校验和）
func (f Frame) Encode() []byte {
	buf := make([]byte, 0, len(f.Payload)+frameOverhead)
	buf = append(buf, Sync1, Sync2)
	buf = append(buf, f.Class, f.ID)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(f.Payload)))
	buf = append(buf, f.Payload...)

	// 校验和覆盖class到payload（跳过2字节同步）
	ckA, ckB := Checksum(buf[2:])
	buf = append(buf, ckA, ckB)
	return buf
}

// Equal 判断两帧是否相同
func (f Frame) Equal(other Frame) bool {
	return f.Class == other.Class && f.ID == other.ID && bytes.Equal(f.Payload, other.Payload)
}

// IsNak 判断是否为ACK-NAK拒绝帧
func (f Frame) IsNak() bool {
	return f.Class == ClassAck && f.ID == IDAckNak
}

// String 返回帧的可读标识，用于日志
func (f Frame) String() string {
	return fmt.Sprintf("class=0x%02X id=0x%02X len=%d", f.Class, f.ID, len(f.Payload))
}
