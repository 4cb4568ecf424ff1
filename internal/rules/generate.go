package rules

import (
	"bufio"
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/hao1658-beep/google-ai-rules/pkg/config"
	"github.com/hao1658-beep/google-ai-rules/pkg/logger"
)

// GroupResult 单个分组的生成结果
type GroupResult struct {
	Name        string `json:"name"`
	Output      string `json:"output"`
	DomainCount int    `json:"domain_count"`
}

// RunResult 一次运行的汇总信息
type RunResult struct {
	Mode      string         `json:"mode"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Sources   []SourceStatus `json:"sources"`
	Groups    []GroupResult  `json:"groups"`
	Appended  int            `json:"appended"` // 仅追加模式使用
}

// FailedSources 统计失败的规则源数量
func (r *RunResult) FailedSources() int {
	n := 0
	for _, s := range r.Sources {
		if s.Status != "success" {
			n++
		}
	}
	return n
}

// Generator 全量生成管线：
// 逐分组抓取规则源、提取并判定域名、去重排序后覆盖写入分组文件，
// 最后将所有分组求并集写入合并文件。
type Generator struct {
	cfg     *config.Config
	fetcher *Fetcher
	logger  *logger.Logger
}

// NewGenerator 创建全量生成管线
func NewGenerator(cfg *config.Config, log *logger.Logger) *Generator {
	return &Generator{
		cfg:     cfg,
		fetcher: NewFetcher(cfg.GetFetchTimeout(), cfg.GetUserAgent(), cfg.GetRetryCount()),
		logger:  log,
	}
}

// Run 执行一次全量生成
func (g *Generator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		Mode:      "generate",
		StartedAt: time.Now(),
	}

	all := NewRuleSet()
	for i := range g.cfg.Groups {
		grp := &g.cfg.Groups[i]
		set := g.collectGroup(ctx, grp, result)

		domains := set.Sorted()
		path := filepath.Join(g.cfg.OutputDir, grp.Output)
		if err := WriteRuleFile(path, grp.Title, domains); err != nil {
			return result, err
		}
		g.logger.Info("[+] Updated: %s (%d domains)", path, len(domains))

		all.Merge(set)
		result.Groups = append(result.Groups, GroupResult{
			Name:        grp.Name,
			Output:      grp.Output,
			DomainCount: len(domains),
		})
	}

	// 合并文件：所有分组的并集
	combined := all.Sorted()
	combinedPath := filepath.Join(g.cfg.OutputDir, g.cfg.Combined.Output)
	if err := WriteRuleFile(combinedPath, g.cfg.Combined.Title, combined); err != nil {
		return result, err
	}
	g.logger.Info("[+] Updated: %s (%d domains)", combinedPath, len(combined))

	result.Groups = append(result.Groups, GroupResult{
		Name:        "combined",
		Output:      g.cfg.Combined.Output,
		DomainCount: len(combined),
	})
	result.Duration = time.Since(result.StartedAt)

	return result, nil
}

// collectGroup 抓取一个分组的所有规则源并聚合命中的域名。
// 单个规则源失败只记录并跳过，不会中断整个运行。
func (g *Generator) collectGroup(ctx context.Context, grp *config.GroupConfig, result *RunResult) RuleSet {
	set := NewRuleSet()

	for _, url := range grp.Sources {
		g.logger.Info("[+] Fetching %s", url)
		start := time.Now()
		body, err := g.fetcher.Fetch(ctx, url)
		status := SourceStatus{
			Group:        grp.Name,
			URL:          url,
			ResponseTime: time.Since(start),
		}

		if err != nil {
			g.logger.Warn("[!] Fetch failed: %s: %v", url, err)
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
			domain, ok := ClassifyDomain(token, grp.Keywords)
			if !ok {
				continue
			}
			set.Add(domain)
			count++
		}

		status.Status = "success"
		status.DomainCount = count
		result.Sources = append(result.Sources, status)
	}

	return set
}
