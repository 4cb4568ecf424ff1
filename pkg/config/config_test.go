package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `
groups:
  - name: "google"
    sources:
      - "https://example.com/gemini.list"
    keywords:
      - "google"
`

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "airules", cfg.App.Name)
	require.Equal(t, 15, cfg.Fetch.Timeout)
	require.Equal(t, 1, cfg.Fetch.RetryCount)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, ".", cfg.OutputDir)
	require.Equal(t, "all-ai.conf", cfg.Combined.Output)
	require.Equal(t, "google", cfg.Append.Discriminator)

	// 分组默认值
	require.Equal(t, "google.conf", cfg.Groups[0].Output)
	require.Equal(t, "# ==== google ====", cfg.Groups[0].Title)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "配置文件不存在")
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "groups: [unclosed")
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			"no groups",
			`output_dir: "."`,
			"至少需要配置一个平台分组",
		},
		{
			"group without sources",
			"groups:\n  - name: g\n    keywords: [g]\n",
			"没有配置规则源",
		},
		{
			"group without keywords",
			"groups:\n  - name: g\n    sources: [https://example.com/a.list]\n",
			"没有配置关键词",
		},
		{
			"duplicate group names",
			"groups:\n" +
				"  - name: g\n    sources: [https://example.com/a.list]\n    keywords: [g]\n" +
				"  - name: g\n    sources: [https://example.com/b.list]\n    keywords: [g]\n",
			"平台分组名称重复",
		},
		{
			"bad log level",
			minimalConfig + "logging:\n  level: verbose\n",
			"无效的日志级别",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := LoadConfig(path)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadConfigGetters(t *testing.T) {
	path := writeConfig(t, minimalConfig)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "15s", cfg.GetFetchTimeout().String())
	require.Equal(t, 1, cfg.GetRetryCount())

	g, ok := cfg.GetGroup("google")
	require.True(t, ok)
	require.Equal(t, "google", g.Name)

	_, ok = cfg.GetGroup("missing")
	require.False(t, ok)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	t.Setenv("AIRULES_OUTPUT_DIR", "/tmp/rules-out")
	t.Setenv("AIRULES_PUSHGATEWAY", "http://push.example.com:9091")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/rules-out", cfg.OutputDir)
	require.True(t, cfg.IsMetricsEnabled())
	require.Equal(t, "http://push.example.com:9091", cfg.Metrics.Pushgateway)
}

func TestLoadConfigEnvConfigPath(t *testing.T) {
	path := writeConfig(t, minimalConfig)
	t.Setenv("AIRULES_CONFIG", path)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Len(t, cfg.Groups, 1)
}
