package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults 无配置文件时使用内置默认值
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Device.Path)
	assert.Equal(t, 9600, cfg.Device.Baud)
	assert.Equal(t, 100*time.Millisecond, cfg.Device.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.Device.DialTimeout)

	assert.Equal(t, 5, cfg.Exchange.MaxAttempts)
	assert.Equal(t, 4096, cfg.Exchange.ReadBudget)
	assert.Equal(t, 2*time.Second, cfg.Exchange.FrameTimeout)
	assert.Equal(t, 5, cfg.Exchange.SendRate)
	assert.Equal(t, 1, cfg.Exchange.SendBurst)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Empty(t, cfg.Logging.File.Filename, "默认不写日志文件")
}

// TestLoad_File 配置文件覆盖默认值，未提及的键保持默认
func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gnsscfg.yaml")
	content := []byte(`
device:
  path: tcp://localhost:2000
  baud: 115200
exchange:
  maxAttempts: 3
  frameTimeout: 500ms
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:2000", cfg.Device.Path)
	assert.Equal(t, 115200, cfg.Device.Baud)
	assert.Equal(t, 3, cfg.Exchange.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Exchange.FrameTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)

	assert.Equal(t, 5, cfg.Exchange.SendRate, "文件未提及的键保持默认")
	assert.Equal(t, 100*time.Millisecond, cfg.Device.ReadTimeout)
}

// TestLoad_EnvOverride 环境变量按 GNSSCFG_ 前缀覆盖
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GNSSCFG_DEVICE_BAUD", "57600")
	t.Setenv("GNSSCFG_EXCHANGE_MAXATTEMPTS", "2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 57600, cfg.Device.Baud)
	assert.Equal(t, 2, cfg.Exchange.MaxAttempts)
}

// TestLoad_EnvConfigPath 配置文件路径可由 GNSSCFG_CONFIG 指定
func TestLoad_EnvConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device:\n  baud: 38400\n"), 0o644))
	t.Setenv("GNSSCFG_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 38400, cfg.Device.Baud)
}

// TestLoad_MissingExplicitFile 显式指定的配置文件缺失时报错
func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

// TestLoad_MalformedFile 语法错误的配置文件报错
func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device: [unclosed\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
