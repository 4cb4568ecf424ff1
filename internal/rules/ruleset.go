package rules

import (
	"sort"
)

// RuleSet 域名集合，集合语义保证无重复
type RuleSet map[string]struct{}

// NewRuleSet 创建空域名集合
func NewRuleSet() RuleSet {
	return make(RuleSet)
}

// Add 添加域名
func (s RuleSet) Add(domain string) {
	s[domain] = struct{}{}
}

// Contains 检查域名是否已存在
func (s RuleSet) Contains(domain string) bool {
	_, ok := s[domain]
	return ok
}

// Len 集合大小
func (s RuleSet) Len() int {
	return len(s)
}

// Merge 并入另一个集合
func (s RuleSet) Merge(other RuleSet) {
	for d := range other {
		s[d] = struct{}{}
	}
}

// Diff 返回 s 中不在 other 里的域名（精确字符串比较）
func (s RuleSet) Diff(other RuleSet) RuleSet {
	out := NewRuleSet()
	for d := range s {
		if !other.Contains(d) {
			out.Add(d)
		}
	}
	return out
}

// Sorted 按字典序升序输出
func (s RuleSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
