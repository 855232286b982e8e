package ubx

import (
	"os"
	"testing"
)

func TestParseOverride(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		field   string
		value   int64
		wantErr bool
	}{
		{name: "十进制", input: "pAcc=50", field: "pAcc", value: 50},
		{name: "十六进制", input: "mask=0xFFFF", field: "mask", value: 0xFFFF},
		{name: "负值", input: "fixedAlt=-100", field: "fixedAlt", value: -100},
		{name: "缺少等号", input: "pAcc", wantErr: true},
		{name: "缺少字段名", input: "=5", wantErr: true},
		{name: "缺少值", input: "pAcc=", wantErr: true},
		{name: "非数字", input: "pAcc=fast", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, value, err := ParseOverride(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOverride() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if field != tt.field || value != tt.value {
				t.Errorf("ParseOverride() = (%s, %d), expected (%s, %d)", field, value, tt.field, tt.value)
			}
		})
	}
}

func TestLoadOverrideFile(t *testing.T) {
	tmp := t.TempDir() + "/overrides.yaml"
	if err := os.WriteFile(tmp, []byte("overrides:\n  minElev: 10\n  pAcc: 50\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadOverrideFile(tmp)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m["minElev"] != 10 || m["pAcc"] != 50 {
		t.Fatalf("overrides = %v", m)
	}
}

func TestLoadOverrideFile_Empty(t *testing.T) {
	tmp := t.TempDir() + "/empty.yaml"
	if err := os.WriteFile(tmp, []byte("# 无覆盖\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadOverrideFile(tmp)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m == nil || len(m) != 0 {
		t.Fatalf("overrides = %v, expected empty map", m)
	}
}

func TestLoadOverrideFile_Missing(t *testing.T) {
	if _, err := LoadOverrideFile(t.TempDir() + "/nope.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
