package rules

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hao1658-beep/google-ai-rules/pkg/config"
	"github.com/hao1658-beep/google-ai-rules/pkg/logger"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.ERROR, "text", "test", io.Discard)
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.OutputDir = t.TempDir()
	cfg.Fetch.Timeout = 5
	cfg.Fetch.RetryCount = 1
	cfg.Fetch.UserAgent = "airules-test/1.0"
	cfg.Combined.Title = "# ==== All AI Platforms Combined ===="
	cfg.Combined.Output = "all-ai.conf"
	return cfg
}

func ruleServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeneratorRun(t *testing.T) {
	src1 := ruleServer(t, "# Gemini rules\n"+
		"DOMAIN-SUFFIX,gemini.google.com,PROXY\n"+
		"DOMAIN,bard.google.com,PROXY\n"+
		"DOMAIN-SUFFIX,unrelated.example.com,PROXY\n"+
		"IP-CIDR,10.0.0.0/8,DIRECT\n")
	src2 := ruleServer(t, "DOMAIN-SUFFIX,bard.google.com,PROXY\n" +
		"DOMAIN-SUFFIX,Aistudio.Google.com,PROXY\n")

	cfg := newTestConfig(t)
	cfg.Groups = []config.GroupConfig{{
		Name:     "google",
		Title:    "# ==== Google AI / Gemini ====",
		Output:   "google-ai.conf",
		Sources:  []string{src1.URL, src2.URL},
		Keywords: []string{"google", "gemini", "bard", "aistudio"},
	}}

	gen := NewGenerator(cfg, newTestLogger())
	result, err := gen.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Sources, 2)
	require.Equal(t, 0, result.FailedSources())

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "google-ai.conf"))
	require.NoError(t, err)
	want := "# ==== Google AI / Gemini ====\n" +
		"DOMAIN-SUFFIX,aistudio.google.com,PROXY\n" +
		"DOMAIN-SUFFIX,bard.google.com,PROXY\n" +
		"DOMAIN-SUFFIX,gemini.google.com,PROXY\n"
	require.Equal(t, want, string(data))

	// 合并文件只有一个分组时与分组内容一致（标题除外）
	combined, err := os.ReadFile(filepath.Join(cfg.OutputDir, "all-ai.conf"))
	require.NoError(t, err)
	require.Equal(t, "# ==== All AI Platforms Combined ====\n"+
		"DOMAIN-SUFFIX,aistudio.google.com,PROXY\n"+
		"DOMAIN-SUFFIX,bard.google.com,PROXY\n"+
		"DOMAIN-SUFFIX,gemini.google.com,PROXY\n", string(combined))
}

func TestGeneratorRunToleratesSourceFailure(t *testing.T) {
	good := ruleServer(t, "DOMAIN-SUFFIX,gemini.google.com,PROXY\n")
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(bad.Close)

	cfg := newTestConfig(t)
	cfg.Groups = []config.GroupConfig{{
		Name:     "google",
		Title:    "# google",
		Output:   "google-ai.conf",
		Sources:  []string{bad.URL, good.URL},
		Keywords: []string{"google"},
	}}

	gen := NewGenerator(cfg, newTestLogger())
	result, err := gen.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.FailedSources())

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "google-ai.conf"))
	require.NoError(t, err)
	require.Equal(t, "# google\nDOMAIN-SUFFIX,gemini.google.com,PROXY\n", string(data))
}

func TestGeneratorRunCombinedUnion(t *testing.T) {
	googleSrc := ruleServer(t, "DOMAIN-SUFFIX,gemini.google.com,PROXY\n")
	openaiSrc := ruleServer(t, "DOMAIN-SUFFIX,chatgpt.com,PROXY\n"+
		"DOMAIN-SUFFIX,api.openai.com,PROXY\n")

	cfg := newTestConfig(t)
	cfg.Groups = []config.GroupConfig{
		{
			Name: "google", Title: "# google", Output: "google-ai.conf",
			Sources: []string{googleSrc.URL}, Keywords: []string{"google", "gemini"},
		},
		{
			Name: "openai", Title: "# openai", Output: "openai.conf",
			Sources: []string{openaiSrc.URL}, Keywords: []string{"openai", "chatgpt"},
		},
	}

	gen := NewGenerator(cfg, newTestLogger())
	result, err := gen.Run(context.Background())
	require.NoError(t, err)

	// 分组结果带每组条数，最后一项是合并文件
	require.Len(t, result.Groups, 3)
	require.Equal(t, "combined", result.Groups[2].Name)
	require.Equal(t, 3, result.Groups[2].DomainCount)

	combined, err := os.ReadFile(filepath.Join(cfg.OutputDir, "all-ai.conf"))
	require.NoError(t, err)
	require.Equal(t, "# ==== All AI Platforms Combined ====\n"+
		"DOMAIN-SUFFIX,api.openai.com,PROXY\n"+
		"DOMAIN-SUFFIX,chatgpt.com,PROXY\n"+
		"DOMAIN-SUFFIX,gemini.google.com,PROXY\n", string(combined))
}

func TestGeneratorRunIdempotent(t *testing.T) {
	src := ruleServer(t, "DOMAIN-SUFFIX,gemini.google.com,PROXY\n"+
		"DOMAIN-SUFFIX,bard.google.com,PROXY\n")

	cfg := newTestConfig(t)
	cfg.Groups = []config.GroupConfig{{
		Name: "google", Title: "# google", Output: "google-ai.conf",
		Sources: []string{src.URL}, Keywords: []string{"google"},
	}}

	gen := NewGenerator(cfg, newTestLogger())

	_, err := gen.Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(cfg.OutputDir, "google-ai.conf"))
	require.NoError(t, err)

	_, err = gen.Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(cfg.OutputDir, "google-ai.conf"))
	require.NoError(t, err)

	require.Equal(t, first, second)
}
