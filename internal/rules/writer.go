package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hao1658-beep/google-ai-rules/pkg/utils"
)

// FormatRuleLine 渲染单条规则行
func FormatRuleLine(domain string) string {
	return fmt.Sprintf("DOMAIN-SUFFIX,%s,PROXY", domain)
}

// RenderRuleFile 渲染整个规则文件：标题行 + 每域名一行，以换行符结尾
func RenderRuleFile(title string, domains []string) string {
	lines := make([]string, 0, len(domains)+1)
	lines = append(lines, title)
	for _, d := range domains {
		lines = append(lines, FormatRuleLine(d))
	}
	return strings.Join(lines, "\n") + "\n"
}

// WriteRuleFile 覆盖写入规则文件，完全替换既有内容
func WriteRuleFile(path, title string, domains []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(RenderRuleFile(title, domains)), 0644); err != nil {
		return fmt.Errorf("写入规则文件失败: %w", err)
	}
	return nil
}

// AppendRuleFile 逻辑追加：保留既有内容，补一个空行和段落标题注释，
// 再逐行写入新域名，最后整体重写文件。
// 没有新域名时仍然写入空行和标题，与历史行为保持一致。
func AppendRuleFile(path, title string, domains []string) error {
	existing, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取目标规则文件失败: %w", err)
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(string(existing), "\n"))
	b.WriteString("\n\n")
	b.WriteString(title)
	b.WriteString("\n")
	for _, d := range domains {
		b.WriteString(FormatRuleLine(d))
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("写入规则文件失败: %w", err)
	}
	return nil
}
