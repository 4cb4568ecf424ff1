package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hao1658-beep/google-ai-rules/pkg/utils"
)

// GroupConfig 平台分组配置：一个 AI 平台的规则源与关键词
type GroupConfig struct {
	Name     string   `yaml:"name"`     // 分组名称，如 google / openai / claude
	Title    string   `yaml:"title"`    // 输出文件首行标题注释
	Output   string   `yaml:"output"`   // 输出文件名
	Sources  []string `yaml:"sources"`  // 规则源 URL 列表
	Keywords []string `yaml:"keywords"` // 域名匹配关键词（子串匹配）
}

// AppendConfig 增量追加模式配置
type AppendConfig struct {
	Target        string   `yaml:"target"`        // 追加目标文件（必须已存在）
	Title         string   `yaml:"title"`         // 追加段落的注释标题
	Discriminator string   `yaml:"discriminator"` // 必须命中的主关键词
	Keywords      []string `yaml:"keywords"`      // 辅助关键词（任一命中即可）
	Sources       []string `yaml:"sources"`       // 规则源 URL 列表
}

// Config 应用配置结构
type Config struct {
	// 基础配置
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	// 抓取配置
	Fetch struct {
		Timeout    int    `yaml:"timeout"`     // 单个请求超时（秒）
		RetryCount int    `yaml:"retry_count"` // 每个源的尝试次数
		UserAgent  string `yaml:"user_agent"`
	} `yaml:"fetch"`

	// 日志配置
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
		Prefix string `yaml:"prefix"`
	} `yaml:"logging"`

	// 输出目录
	OutputDir string `yaml:"output_dir"`

	// 平台分组配置
	Groups []GroupConfig `yaml:"groups"`

	// 合并文件配置
	Combined struct {
		Title  string `yaml:"title"`
		Output string `yaml:"output"`
	} `yaml:"combined"`

	// 增量追加配置
	Append AppendConfig `yaml:"append"`

	// 运行历史配置
	History struct {
		Enabled    bool   `yaml:"enabled"`
		SQLiteFile string `yaml:"sqlite_file"`
	} `yaml:"history"`

	// 指标推送配置
	Metrics struct {
		Enabled     bool   `yaml:"enabled"`
		Pushgateway string `yaml:"pushgateway"`
		Job         string `yaml:"job"`
	} `yaml:"metrics"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	// 环境变量可覆盖配置文件路径
	if env := os.Getenv("AIRULES_CONFIG"); env != "" {
		configPath = env
	}
	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	// 检查配置文件是否存在
	if !utils.FileExists(configPath) {
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	// 读取配置文件
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析 YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 设置默认值
	setDefaults(&config)

	// 应用环境变量覆盖
	applyEnvOverrides(&config)

	// 验证配置
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// getDefaultConfigPath 获取默认配置文件路径
func getDefaultConfigPath() string {
	// 按优先级查找配置文件
	paths := []string{
		"configs/config.yaml",
		"config.yaml",
	}

	for _, path := range paths {
		if utils.FileExists(path) {
			return path
		}
	}

	return "configs/config.yaml"
}

// setDefaults 设置默认配置值
func setDefaults(config *Config) {
	// 应用默认值
	if config.App.Name == "" {
		config.App.Name = "airules"
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	// 抓取默认值
	if config.Fetch.Timeout == 0 {
		config.Fetch.Timeout = 15
	}
	if config.Fetch.RetryCount == 0 {
		config.Fetch.RetryCount = 1
	}
	if config.Fetch.UserAgent == "" {
		config.Fetch.UserAgent = config.App.Name + "/" + config.App.Version
	}

	// 日志默认值
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
	if config.Logging.Output == "" {
		config.Logging.Output = "stdout"
	}
	if config.Logging.Prefix == "" {
		config.Logging.Prefix = config.App.Name
	}

	// 输出默认值
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	if config.Combined.Title == "" {
		config.Combined.Title = "# ==== All AI Platforms Combined ===="
	}
	if config.Combined.Output == "" {
		config.Combined.Output = "all-ai.conf"
	}

	// 分组默认值
	for i := range config.Groups {
		g := &config.Groups[i]
		if g.Title == "" {
			g.Title = fmt.Sprintf("# ==== %s ====", g.Name)
		}
		if g.Output == "" {
			g.Output = g.Name + ".conf"
		}
	}

	// 追加模式默认值
	if config.Append.Title == "" {
		config.Append.Title = "# ==== Auto appended ===="
	}
	if config.Append.Discriminator == "" {
		config.Append.Discriminator = "google"
	}

	// 历史默认值
	if config.History.SQLiteFile == "" {
		config.History.SQLiteFile = "data/airules.db"
	}

	// 指标默认值
	if config.Metrics.Job == "" {
		config.Metrics.Job = config.App.Name
	}
}

// applyEnvOverrides 应用环境变量覆盖
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("AIRULES_OUTPUT_DIR"); v != "" {
		config.OutputDir = v
	}
	if v := os.Getenv("AIRULES_PUSHGATEWAY"); v != "" {
		config.Metrics.Enabled = true
		config.Metrics.Pushgateway = v
	}
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	if len(config.Groups) == 0 {
		return fmt.Errorf("至少需要配置一个平台分组")
	}

	seen := make(map[string]bool)
	for _, g := range config.Groups {
		if utils.IsEmpty(g.Name) {
			return fmt.Errorf("平台分组名称不能为空")
		}
		if seen[g.Name] {
			return fmt.Errorf("平台分组名称重复: %s", g.Name)
		}
		seen[g.Name] = true

		if len(g.Sources) == 0 {
			return fmt.Errorf("分组 %s 没有配置规则源", g.Name)
		}
		if len(g.Keywords) == 0 {
			return fmt.Errorf("分组 %s 没有配置关键词", g.Name)
		}
	}

	if !isValidLogLevel(config.Logging.Level) {
		return fmt.Errorf("无效的日志级别: %s", config.Logging.Level)
	}

	if config.Metrics.Enabled && utils.IsEmpty(config.Metrics.Pushgateway) {
		return fmt.Errorf("启用指标推送时 pushgateway 地址不能为空")
	}

	return nil
}

// isValidLogLevel 验证日志级别
func isValidLogLevel(level string) bool {
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	level = strings.ToLower(level)
	for _, valid := range validLevels {
		if level == valid {
			return true
		}
	}
	return false
}

// GetFetchTimeout 获取抓取超时
func (c *Config) GetFetchTimeout() time.Duration {
	if c.Fetch.Timeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Fetch.Timeout) * time.Second
}

// GetRetryCount 获取每个源的尝试次数
func (c *Config) GetRetryCount() int {
	if c.Fetch.RetryCount <= 0 {
		return 1
	}
	return c.Fetch.RetryCount
}

// GetUserAgent 获取抓取用户代理
func (c *Config) GetUserAgent() string {
	if c.Fetch.UserAgent == "" {
		return "airules/1.0"
	}
	return c.Fetch.UserAgent
}

// GetGroup 按名称查找平台分组
func (c *Config) GetGroup(name string) (*GroupConfig, bool) {
	for i := range c.Groups {
		if c.Groups[i].Name == name {
			return &c.Groups[i], true
		}
	}
	return nil, false
}

// IsHistoryEnabled 是否启用运行历史
func (c *Config) IsHistoryEnabled() bool {
	return c.History.Enabled
}

// IsMetricsEnabled 是否启用指标推送
func (c *Config) IsMetricsEnabled() bool {
	return c.Metrics.Enabled && c.Metrics.Pushgateway != ""
}
