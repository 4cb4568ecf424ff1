package rules

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hao1658-beep/google-ai-rules/pkg/config"
	"github.com/hao1658-beep/google-ai-rules/pkg/logger"
)

// Appender 增量追加管线：
// 只处理单个目标文件，候选域名减去文件中已声明的条目后追加到末尾。
// 已有内容永远不会被删除或改写。
type Appender struct {
	cfg     *config.Config
	fetcher *Fetcher
	logger  *logger.Logger
}

// NewAppender 创建增量追加管线
func NewAppender(cfg *config.Config, log *logger.Logger) *Appender {
	return &Appender{
		cfg:     cfg,
		fetcher: NewFetcher(cfg.GetFetchTimeout(), cfg.GetUserAgent(), cfg.GetRetryCount()),
		logger:  log,
	}
}

// Run 执行一次增量追加。
// 目标文件缺失是启动级错误，在任何网络请求之前返回。
func (a *Appender) Run(ctx context.Context) (*RunResult, error) {
	ac := &a.cfg.Append

	result := &RunResult{
		Mode:      "append",
		StartedAt: time.Now(),
	}

	if ac.Target == "" {
		return result, fmt.Errorf("追加模式没有配置目标文件")
	}
	if len(ac.Sources) == 0 {
		return result, fmt.Errorf("追加模式没有配置规则源")
	}

	target := filepath.Join(a.cfg.OutputDir, ac.Target)
	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return result, fmt.Errorf("目标规则文件不存在: %s", target)
		}
		return result, fmt.Errorf("读取目标规则文件失败: %w", err)
	}
	existing := ExtractFileDomains(string(data))
	a.logger.Info("[+] Target %s holds %d domains", target, existing.Len())

	// 抓取候选域名，两级判定，保留提取时的大小写
	candidates := NewRuleSet()
	for _, url := range ac.Sources {
		a.logger.Info("[+] Fetching %s", url)
		start := time.Now()
		body, err := a.fetcher.Fetch(ctx, url)
		status := SourceStatus{
			Group:        "append",
			URL:          url,
			ResponseTime: time.Since(start),
		}

		if err != nil {
			a.logger.Warn("[!] Fetch failed: %s: %v", url, err)
			status.Status = "error"
			status.LastError = err.Error()
			result.Sources = append(result.Sources, status)
			continue
		}

		count := 0
		scanner := bufio.NewScanner(strings.NewReader(body))
		for scanner.Scan() {
			token, ok := ExtractDomain(scanner.Text())
			if !ok {
				continue
			}
			domain, ok := ClassifyAppendDomain(token, ac.Discriminator, ac.Keywords)
			if !ok {
				continue
			}
			candidates.Add(domain)
			count++
		}

		status.Status = "success"
		status.DomainCount = count
		result.Sources = append(result.Sources, status)
	}

	// 精确字符串比较的集合差：只追加文件中还没有的域名
	fresh := candidates.Diff(existing).Sorted()
	if err := AppendRuleFile(target, ac.Title, fresh); err != nil {
		return result, err
	}
	a.logger.Info("[+] Appended %d new domains to %s", len(fresh), target)

	result.Appended = len(fresh)
	result.Duration = time.Since(result.StartedAt)

	return result, nil
}
