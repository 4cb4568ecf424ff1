package rules

import (
	"strings"
)

// matchesAny 任一关键词以子串形式出现即命中
func matchesAny(domain string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(domain, k) {
			return true
		}
	}
	return false
}

// ClassifyDomain 全量生成模式的分组判定：
// 域名归一化为小写后做关键词子串匹配，命中后还必须至少包含一个 "."。
// 返回归一化后的域名。
func ClassifyDomain(token string, keywords []string) (string, bool) {
	d := strings.ToLower(token)
	if !matchesAny(d, keywords) {
		return "", false
	}
	if !strings.Contains(d, ".") {
		return "", false
	}
	return d, true
}

// ClassifyAppendDomain 增量追加模式的两级判定：
// 主关键词必须命中，辅助关键词任一命中即可，同样要求包含 "."。
// 与全量模式不同，返回值保留提取时的原始大小写。
func ClassifyAppendDomain(token, discriminator string, keywords []string) (string, bool) {
	d := strings.ToLower(token)
	if !strings.Contains(d, strings.ToLower(discriminator)) {
		return "", false
	}
	if !matchesAny(d, keywords) {
		return "", false
	}
	if !strings.Contains(d, ".") {
		return "", false
	}
	return token, true
}
