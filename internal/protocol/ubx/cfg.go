package ubx

import "encoding/binary"

// CFG-CFG 配置保存命令。
// 载荷格式：clearMask(4) + saveMask(4) + loadMask(4) + deviceMask(1)，共13字节。

const (
	cfgCfgPayloadLen = 13

	// saveMask：保存全部配置分区
	saveAllSections = 0x0000FFFF

	// deviceMask：BBR | Flash | EEPROM | SPI Flash
	saveAllDevices = 0x17
)

// SavePayload 构造CFG-CFG载荷：将当前配置写入全部非易失存储
// clearMask与loadMask保持为0，只保存，不清除不回载。
func SavePayload() []byte {
	buf := make([]byte, cfgCfgPayloadLen)
	binary.LittleEndian.PutUint32(buf[4:8], saveAllSections)
	buf[12] = saveAllDevices
	return buf
}
