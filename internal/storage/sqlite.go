package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hao1658-beep/google-ai-rules/internal/rules"
	"github.com/hao1658-beep/google-ai-rules/pkg/utils"
)

// RunStore 运行历史存储管理器
type RunStore struct {
	db *sql.DB
}

// RunRecord 一次历史运行的汇总记录
type RunRecord struct {
	ID          int64
	Mode        string
	StartedAt   time.Time
	Duration    time.Duration
	Success     bool
	SourceCount int
	FailedCount int
	DomainCount int
}

// NewRunStore 打开（必要时创建）运行历史数据库
func NewRunStore(dbPath string) (*RunStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// SQLite 只支持单个连接
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("创建表失败: %w", err)
	}

	return &RunStore{db: db}, nil
}

// createTables 创建数据库表
func createTables(db *sql.DB) error {
	tables := []string{
		// 运行记录表
		`CREATE TABLE IF NOT EXISTS rule_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mode TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			success BOOLEAN NOT NULL,
			appended INTEGER DEFAULT 0,
			created_at INTEGER DEFAULT (strftime('%s', 'now'))
		)`,

		// 规则源抓取结果表
		`CREATE TABLE IF NOT EXISTS rule_run_sources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			group_name TEXT NOT NULL,
			url TEXT NOT NULL,
			status TEXT NOT NULL,
			last_error TEXT,
			domain_count INTEGER DEFAULT 0,
			response_time_ms INTEGER DEFAULT 0,
			FOREIGN KEY (run_id) REFERENCES rule_runs(id) ON DELETE CASCADE
		)`,

		// 分组输出结果表
		`CREATE TABLE IF NOT EXISTS rule_run_groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			group_name TEXT NOT NULL,
			output TEXT NOT NULL,
			domain_count INTEGER DEFAULT 0,
			FOREIGN KEY (run_id) REFERENCES rule_runs(id) ON DELETE CASCADE
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("创建表失败: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_started ON rule_runs(started_at)",
		"CREATE INDEX IF NOT EXISTS idx_run_sources_run ON rule_run_sources(run_id)",
		"CREATE INDEX IF NOT EXISTS idx_run_groups_run ON rule_run_groups(run_id)",
	}

	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			return fmt.Errorf("创建索引失败: %w", err)
		}
	}

	return nil
}

// RecordRun 持久化一次运行的结果
func (s *RunStore) RecordRun(result *rules.RunResult, success bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO rule_runs (mode, started_at, duration_ms, success, appended) VALUES (?, ?, ?, ?, ?)`,
		result.Mode, result.StartedAt.Unix(), result.Duration.Milliseconds(), success, result.Appended,
	)
	if err != nil {
		return fmt.Errorf("写入运行记录失败: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("获取运行记录 ID 失败: %w", err)
	}

	for _, src := range result.Sources {
		if _, err := tx.Exec(
			`INSERT INTO rule_run_sources (run_id, group_name, url, status, last_error, domain_count, response_time_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, src.Group, src.URL, src.Status, src.LastError, src.DomainCount, src.ResponseTime.Milliseconds(),
		); err != nil {
			return fmt.Errorf("写入规则源记录失败: %w", err)
		}
	}

	for _, grp := range result.Groups {
		if _, err := tx.Exec(
			`INSERT INTO rule_run_groups (run_id, group_name, output, domain_count) VALUES (?, ?, ?, ?)`,
			runID, grp.Name, grp.Output, grp.DomainCount,
		); err != nil {
			return fmt.Errorf("写入分组记录失败: %w", err)
		}
	}

	return tx.Commit()
}

// RecentRuns 查询最近的运行记录，按开始时间倒序
func (s *RunStore) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT r.id, r.mode, r.started_at, r.duration_ms, r.success,
		       (SELECT COUNT(*) FROM rule_run_sources s WHERE s.run_id = r.id),
		       (SELECT COUNT(*) FROM rule_run_sources s WHERE s.run_id = r.id AND s.status != 'success'),
		       COALESCE((SELECT SUM(g.domain_count) FROM rule_run_groups g WHERE g.run_id = r.id), r.appended)
		FROM rule_runs r
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedAt, durationMs int64
		if err := rows.Scan(&rec.ID, &rec.Mode, &startedAt, &durationMs, &rec.Success,
			&rec.SourceCount, &rec.FailedCount, &rec.DomainCount); err != nil {
			return nil, fmt.Errorf("读取运行记录失败: %w", err)
		}
		rec.StartedAt = time.Unix(startedAt, 0)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Close 关闭数据库连接
func (s *RunStore) Close() error {
	return s.db.Close()
}
