package ubx

import (
	"fmt"
	"sort"
)

// CFG-NAV5 导航引擎设置，载荷固定36字节。
// 字段顺序即序列化顺序，属于线上契约，禁止调整。

// nav5PayloadLen CFG-NAV5载荷长度
const nav5PayloadLen = 36

// PollProfile 查询档位名称：不携带载荷，向接收机回读当前设置
const PollProfile = "poll"

// 动态平台模型取值（dynModel字段）
const (
	DynModelPortable   = 0
	DynModelStationary = 2
	DynModelPedestrian = 3
	DynModelAutomotive = 4
	DynModelSea        = 5
	DynModelAirborne1g = 6
	DynModelAirborne2g = 7
	DynModelAirborne4g = 8
	DynModelWrist      = 9
)

// Field CFG-NAV5载荷中的一个定宽字段
type Field struct {
	Name   string
	Width  int
	Signed bool
	Value  int64
}

// Profile 命名的动态模型档位
// poll档位不持有字段表（纯查询）；其余档位持有完整的CFG-NAV5字段表。
// 档位为值语义：Apply返回修改后的副本，字段表不在调用方之间共享。
type Profile struct {
	Name   string
	fields []Field
}

// FieldOverflowError 覆盖值超出字段位宽
type FieldOverflowError struct {
	Field string
	Value int64
}

func (e *FieldOverflowError) Error() string {
	return fmt.Sprintf("value %d does not fit field %s", e.Value, e.Field)
}

// InvalidFieldError 字段不存在或不允许覆盖
type InvalidFieldError struct {
	Field string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("field %s is unknown or not overridable", e.Field)
}

// nav5Template CFG-NAV5字段表模板（u-blox出厂导航参数）
// 每次调用返回新切片，档位之间互不共享。
func nav5Template(dynModel int64) []Field {
	return []Field{
		{Name: "mask", Width: 2, Value: 0xFFFF},
		{Name: "dynModel", Width: 1, Value: dynModel},
		{Name: "fixMode", Width: 1, Value: 3},
		{Name: "fixedAlt", Width: 4, Signed: true, Value: 0},
		{Name: "fixedAltVar", Width: 4, Value: 10000},
		{Name: "minElev", Width: 1, Signed: true, Value: 5},
		{Name: "drLimit", Width: 1, Value: 0},
		{Name: "pDop", Width: 2, Value: 250},
		{Name: "tDop", Width: 2, Value: 250},
		{Name: "pAcc", Width: 2, Value: 100},
		{Name: "tAcc", Width: 2, Value: 350},
		{Name: "staticHoldThresh", Width: 1, Value: 0},
		{Name: "dgnssTimeout", Width: 1, Value: 60},
		{Name: "cnoThreshNumSVs", Width: 1, Value: 0},
		{Name: "cnoThresh", Width: 1, Value: 0},
		{Name: "reserved1", Width: 2, Value: 0},
		{Name: "staticHoldMaxDist", Width: 2, Value: 0},
		{Name: "utcStandard", Width: 1, Value: 0},
		{Name: "reserved2", Width: 5, Value: 0},
	}
}

// profileModels 档位名 -> 动态模型值
var profileModels = map[string]int64{
	"portable":       DynModelPortable,
	"stationary":     DynModelStationary,
	"pedestrian":     DynModelPedestrian,
	"automotive":     DynModelAutomotive,
	"sea":            DynModelSea,
	"airborne_lt_1g": DynModelAirborne1g,
	"airborne_lt_2g": DynModelAirborne2g,
	"airborne_lt_4g": DynModelAirborne4g,
	"wrist":          DynModelWrist,
}

// overridable 允许外部覆盖的字段集合
// dynModel由档位本身决定，reserved字段为协议保留，均不可覆盖。
var overridable = map[string]bool{
	"mask":              true,
	"fixMode":           true,
	"fixedAlt":          true,
	"fixedAltVar":       true,
	"minElev":           true,
	"drLimit":           true,
	"pDop":              true,
	"tDop":              true,
	"pAcc":              true,
	"tAcc":              true,
	"staticHoldThresh":  true,
	"dgnssTimeout":      true,
	"cnoThreshNumSVs":   true,
	"cnoThresh":         true,
	"staticHoldMaxDist": true,
	"utcStandard":       true,
}

// LookupProfile 按名称取档位，每次调用返回独立副本
func LookupProfile(name string) (Profile, error) {
	if name == PollProfile {
		return Profile{Name: PollProfile}, nil
	}
	model, ok := profileModels[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return Profile{Name: name, fields: nav5Template(model)}, nil
}

// Profiles 返回全部档位名称（poll排最后），用于使用说明
func Profiles() []string {
	names := make([]string, 0, len(profileModels)+1)
	for name := range profileModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return append(names, PollProfile)
}

// DynModelName 动态模型值对应的档位名称，未知值返回"unknown"
func DynModelName(v int64) string {
	for name, model := range profileModels {
		if model == v {
			return name
		}
	}
	return "unknown"
}

// IsPoll 判断是否为查询档位
func (p Profile) IsPoll() bool {
	return len(p.fields) == 0
}

// Payload 按字段表顺序编码载荷；poll档位返回空载荷
func (p Profile) Payload() ([]byte, error) {
	if p.IsPoll() {
		return nil, nil
	}
	buf := make([]byte, 0, nav5PayloadLen)
	for _, f := range p.fields {
		enc, err := encodeField(f)
		if err != nil {
			return nil, err
		}
		buf = append(buf, enc...)
	}
	return buf, nil
}

// Apply 覆盖一个字段的取值，返回修改后的新档位，原档位不变
func (p Profile) Apply(name string, value int64) (Profile, error) {
	idx := -1
	for i := range p.fields {
		if p.fields[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 || !overridable[name] {
		return Profile{}, &InvalidFieldError{Field: name}
	}
	f := p.fields[idx]
	if !fits(value, f.Width, f.Signed) {
		return Profile{}, &FieldOverflowError{Field: name, Value: value}
	}

	out := Profile{Name: p.Name, fields: make([]Field, len(p.fields))}
	copy(out.fields, p.fields)
	out.fields[idx].Value = value
	return out, nil
}

// ApplyAll 批量应用覆盖；按字段名排序，应用顺序稳定
func (p Profile) ApplyAll(overrides map[string]int64) (Profile, error) {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	out := p
	for _, name := range names {
		var err error
		if out, err = out.Apply(name, overrides[name]); err != nil {
			return Profile{}, err
		}
	}
	return out, nil
}

// Settings 从接收机回读并解码的导航参数，保持字段表顺序
type Settings []Field

// DecodeNav5 按CFG-NAV5字段表解码36字节载荷
// 仅用于展示回读结果，交换是否成功不依赖解码。
func DecodeNav5(payload []byte) (Settings, error) {
	if len(payload) != nav5PayloadLen {
		return nil, fmt.Errorf("nav5 payload length %d, want %d", len(payload), nav5PayloadLen)
	}
	fields := nav5Template(0)
	out := make(Settings, 0, len(fields))
	off := 0
	for _, f := range fields {
		f.Value = decodeField(payload[off:off+f.Width], f.Signed)
		off += f.Width
		out = append(out, f)
	}
	return out, nil
}

// encodeField 定宽小端编码；值超出字段位宽时报错
func encodeField(f Field) ([]byte, error) {
	if !fits(f.Value, f.Width, f.Signed) {
		return nil, &FieldOverflowError{Field: f.Name, Value: f.Value}
	}
	out := make([]byte, f.Width)
	v := uint64(f.Value)
	for i := 0; i < f.Width; i++ {
		out[i] = byte(v >> (8 * i))
	}
	return out, nil
}

// decodeField 定宽小端解码，signed时做符号扩展
func decodeField(b []byte, signed bool) int64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	if signed {
		bits := uint(len(b) * 8)
		if v&(1<<(bits-1)) != 0 {
			return int64(v) - int64(1)<<bits
		}
	}
	return int64(v)
}

// fits 判断值是否能放入指定位宽
func fits(v int64, width int, signed bool) bool {
	bits := uint(width * 8)
	if signed {
		min := -(int64(1) << (bits - 1))
		max := int64(1)<<(bits-1) - 1
		return v >= min && v <= max
	}
	if v < 0 {
		return false
	}
	if bits >= 64 {
		return true
	}
	return v <= int64(1)<<bits-1
}
