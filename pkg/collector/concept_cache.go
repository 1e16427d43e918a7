package collector

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dewei/SentimentRadar/pkg/model"
)

const conceptSchema = `
CREATE TABLE IF NOT EXISTS concept_members (
  concept    TEXT    NOT NULL,
  stock_code TEXT    NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (concept, stock_code)
);
CREATE INDEX IF NOT EXISTS idx_concept_members_code ON concept_members(stock_code);
`

// ConceptCache 概念成分本地缓存（SQLite）
type ConceptCache struct {
	db  *sql.DB
	now func() time.Time
}

// OpenConceptCache 打开缓存文件，path 为空时使用内存库
func OpenConceptCache(path string) (*ConceptCache, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("创建缓存目录失败: %w", err)
		}
		dsn = fmt.Sprintf("file:%s", filepath.ToSlash(path))
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开概念缓存失败: %w", err)
	}
	// 内存库每个连接相互独立
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(conceptSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("初始化概念缓存失败: %w", err)
	}
	return &ConceptCache{db: db, now: time.Now}, nil
}

// Close 关闭缓存
func (c *ConceptCache) Close() error {
	return c.db.Close()
}

// Members 概念成分；maxAge > 0 时超过有效期的数据视为未命中
func (c *ConceptCache) Members(ctx context.Context, concept string, maxAge time.Duration) ([]string, bool, error) {
	query := "SELECT stock_code FROM concept_members WHERE concept = ?"
	args := []interface{}{concept}
	if maxAge > 0 {
		query += " AND updated_at >= ?"
		args = append(args, c.now().Add(-maxAge).Unix())
	}
	query += " ORDER BY stock_code"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("查询概念成分失败: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, false, fmt.Errorf("读取概念成分失败: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return codes, len(codes) > 0, nil
}

// Replace 覆盖某个概念的成分
func (c *ConceptCache) Replace(ctx context.Context, concept string, codes []string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM concept_members WHERE concept = ?", concept); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("清理概念成分失败: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO concept_members(concept, stock_code, updated_at) VALUES (?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	ts := c.now().Unix()
	for _, code := range codes {
		if _, err := stmt.ExecContext(ctx, concept, model.BareCode(code), ts); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("写入概念成分失败: %w", err)
		}
	}
	return tx.Commit()
}

// ConceptsOf 股票所属的已缓存概念，最多 model.MaxConcepts 个
func (c *ConceptCache) ConceptsOf(ctx context.Context, code string) (model.StringList, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT concept FROM concept_members WHERE stock_code = ? ORDER BY updated_at DESC, concept LIMIT ?",
		model.BareCode(code), model.MaxConcepts)
	if err != nil {
		return nil, fmt.Errorf("查询股票概念失败: %w", err)
	}
	defer rows.Close()

	var concepts model.StringList
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		concepts = append(concepts, name)
	}
	return concepts, rows.Err()
}
