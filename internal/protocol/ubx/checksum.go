package ubx

import "errors"

var (
	// ErrChecksumMismatch checksum校验失败
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Checksum 计算UBX协议校验和（8位Fletcher累加）
// 算法：逐字节 ckA += b，ckB += ckA（byte溢出自动丢弃高位）
// 覆盖范围：class + id + length(2字节小端) + payload，不包含同步字节
func Checksum(data []byte) (ckA, ckB byte) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// VerifyChecksum 验证帧体与接收到的校验和是否一致
// body: 从class到payload结束的帧体（不含同步字节与校验和）
func VerifyChecksum(body []byte, ckA, ckB byte) error {
	a, b := Checksum(body)
	if a != ckA || b != ckB {
		return ErrChecksumMismatch
	}
	return nil
}

// digest 流式校验和累加器，供Reader边读边算
type digest struct {
	a, b byte
}

func (d *digest) add(p []byte) {
	for _, c := range p {
		d.a += c
		d.b += d.a
	}
}

func (d *digest) sum() (ckA, ckB byte) {
	return d.a, d.b
}
