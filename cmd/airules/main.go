package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/hao1658-beep/google-ai-rules/internal/rules"
	"github.com/hao1658-beep/google-ai-rules/internal/storage"
	"github.com/hao1658-beep/google-ai-rules/pkg/config"
	"github.com/hao1658-beep/google-ai-rules/pkg/logger"
)

func main() {
	var configPath string
	var mode string
	var limit int
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&mode, "mode", "generate", "run mode: generate / append / history")
	flag.IntVar(&limit, "limit", 10, "history entries to show")
	flag.Parse()

	// 可选加载 .env，覆盖项见 pkg/config
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg, err := logger.NewLogger(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		Prefix: cfg.Logging.Prefix,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Close()

	var store *storage.RunStore
	if cfg.IsHistoryEnabled() {
		store, err = storage.NewRunStore(cfg.History.SQLiteFile)
		if err != nil {
			logg.Fatal("打开运行历史数据库失败: %v", err)
		}
		defer store.Close()
	}

	ctx := context.Background()

	switch mode {
	case "generate":
		logg.Info("========== Updating AI Rules ==========")
		gen := rules.NewGenerator(cfg, logg)
		result, err := gen.Run(ctx)
		finishRun(cfg, logg, store, result, err)
		logg.Info("[+] All tasks completed.")
	case "append":
		appender := rules.NewAppender(cfg, logg)
		result, err := appender.Run(ctx)
		finishRun(cfg, logg, store, result, err)
		logg.Info("[+] All tasks completed.")
	case "history":
		printHistory(logg, store, limit)
	default:
		logg.Fatal("未知的运行模式: %s", mode)
	}
}

// finishRun 记录运行结果（历史库 + 指标推送），失败时终止进程
func finishRun(cfg *config.Config, logg *logger.Logger, store *storage.RunStore, result *rules.RunResult, runErr error) {
	if store != nil && result != nil {
		if err := store.RecordRun(result, runErr == nil); err != nil {
			logg.Warn("记录运行历史失败: %v", err)
		}
	}

	if cfg.IsMetricsEnabled() && result != nil {
		m := rules.NewMetrics()
		m.Record(result)
		if runErr == nil {
			m.MarkSuccess()
		}
		if err := m.Push(cfg.Metrics.Pushgateway, cfg.Metrics.Job); err != nil {
			logg.Warn("推送指标失败: %v", err)
		}
	}

	if runErr != nil {
		logg.Fatal("运行失败: %v", runErr)
	}

	if n := result.FailedSources(); n > 0 {
		logg.Warn("[!] %d source(s) failed this run", n)
	}
}

// printHistory 打印最近的运行记录
func printHistory(logg *logger.Logger, store *storage.RunStore, limit int) {
	if store == nil {
		logg.Fatal("运行历史未启用，请在配置中开启 history.enabled")
	}

	records, err := store.RecentRuns(limit)
	if err != nil {
		logg.Fatal("查询运行历史失败: %v", err)
	}
	if len(records) == 0 {
		logg.Info("暂无运行记录")
		return
	}

	for _, rec := range records {
		status := "ok"
		if !rec.Success {
			status = "failed"
		}
		logg.Info("#%d %s %s %s 域名 %d 源 %d（失败 %d）耗时 %s",
			rec.ID,
			rec.StartedAt.Format("2006-01-02 15:04:05"),
			rec.Mode,
			status,
			rec.DomainCount,
			rec.SourceCount,
			rec.FailedCount,
			rec.Duration,
		)
	}
}
