package rules

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SourceStatus 单个规则源的抓取结果
type SourceStatus struct {
	Group        string        `json:"group"`
	URL          string        `json:"url"`
	Status       string        `json:"status"` // success, error
	LastError    string        `json:"last_error"`
	DomainCount  int           `json:"domain_count"`
	ResponseTime time.Duration `json:"response_time"`
}

// Fetcher 规则源抓取器，整个运行共用一个带超时的 HTTP 客户端
type Fetcher struct {
	httpc     *http.Client
	userAgent string
	retry     int
}

// NewFetcher 创建抓取器
func NewFetcher(timeout time.Duration, userAgent string, retry int) *Fetcher {
	if retry < 1 {
		retry = 1
	}
	return &Fetcher{
		httpc:     &http.Client{Timeout: timeout},
		userAgent: userAgent,
		retry:     retry,
	}
}

// Fetch 抓取单个规则源的全文，按配置的次数重试
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < f.retry; attempt++ {
		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
