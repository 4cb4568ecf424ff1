package rules

import (
	"bufio"
	"regexp"
	"strings"
)

// 识别的规则行形态：DOMAIN 或 DOMAIN-SUFFIX，逗号后跟域名，
// 之后可以有任意尾随字段
var ruleLineRegex = regexp.MustCompile(`\bDOMAIN(?:-SUFFIX)?\s*,\s*([^,]+)`)

// ExtractDomain 从一行规则文本中提取域名
// 空行、纯空白行和 # 注释行直接跳过；不符合形态的行静默忽略
func ExtractDomain(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", false
	}

	m := ruleLineRegex.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}

	domain := strings.TrimSpace(m[1])
	if domain == "" {
		return "", false
	}
	return domain, true
}

// ExtractFileDomains 提取已有规则文件中声明的全部域名（保留原始写法）
func ExtractFileDomains(content string) RuleSet {
	set := NewRuleSet()
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		if domain, ok := ExtractDomain(scanner.Text()); ok {
			set.Add(domain)
		}
	}
	return set
}
