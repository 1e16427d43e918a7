package backtest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/dewei/SentimentRadar/pkg/engine"
	"github.com/dewei/SentimentRadar/pkg/model"
)

// Analyzer 基于 DuckDB 的回测样本分析
type Analyzer struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenAnalyzer path 为空时使用内存库
func OpenAnalyzer(path string) (*Analyzer, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("打开DuckDB失败: %w", err)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("连接DuckDB失败: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS backtest_samples (
		premium_level VARCHAR,
		total_score   DOUBLE,
		next_pct      DOUBLE
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("创建样本表失败: %w", err)
	}

	if path == "" {
		path = "memory"
	}
	log.Printf("[backtest] DuckDB 已连接: %s", path)
	return &Analyzer{db: db}, nil
}

// Close 关闭连接
func (a *Analyzer) Close() error {
	return a.db.Close()
}

// load 用本次样本覆盖样本表，只保留已有次日数据的记录
func (a *Analyzer) load(ctx context.Context, records []model.BacktestRecord) (int, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM backtest_samples"); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO backtest_samples VALUES (?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, r := range records {
		if !r.HasNextDay() {
			continue
		}
		if _, err := stmt.ExecContext(ctx, string(r.PremiumLevel), r.TotalScore, *r.NextDayChangePct); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("写入样本失败: %w", err)
		}
		n++
	}
	return n, tx.Commit()
}

// Correlation 总分与次日涨幅的皮尔逊相关系数，整体与分等级；样本不足时为空
func (a *Analyzer) Correlation(ctx context.Context, records []model.BacktestRecord) (*model.BacktestCorrelation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, err := a.load(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("加载回测样本失败: %w", err)
	}
	result := &model.BacktestCorrelation{
		SampleSize: n,
		ByLevel:    make(map[model.PremiumLevel]float64),
	}

	var overall sql.NullFloat64
	if err := a.db.QueryRowContext(ctx,
		"SELECT corr(total_score, next_pct) FROM backtest_samples").Scan(&overall); err != nil {
		return nil, fmt.Errorf("计算相关系数失败: %w", err)
	}
	if overall.Valid {
		v := engine.Round2(overall.Float64)
		result.Overall = &v
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT premium_level, corr(total_score, next_pct)
		FROM backtest_samples
		GROUP BY premium_level
		HAVING count(*) >= 2`)
	if err != nil {
		return nil, fmt.Errorf("计算分等级相关系数失败: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var c sql.NullFloat64
		if err := rows.Scan(&level, &c); err != nil {
			return nil, err
		}
		if c.Valid {
			result.ByLevel[model.PremiumLevel(level)] = engine.Round2(c.Float64)
		}
	}
	return result, rows.Err()
}

// CorrelationRange 读取日期区间内的全部记录后计算相关系数
func (a *Accumulator) CorrelationRange(ctx context.Context, analyzer *Analyzer, from, to string) (*model.BacktestCorrelation, error) {
	records, _, err := a.store.QueryBacktest(ctx, model.BacktestFilter{StartDate: from, EndDate: to})
	if err != nil {
		return nil, err
	}
	return analyzer.Correlation(ctx, records)
}
