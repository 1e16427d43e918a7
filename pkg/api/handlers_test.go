package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewei/SentimentRadar/pkg/backtest"
	"github.com/dewei/SentimentRadar/pkg/cache"
	"github.com/dewei/SentimentRadar/pkg/export"
	"github.com/dewei/SentimentRadar/pkg/messaging"
	"github.com/dewei/SentimentRadar/pkg/model"
	"github.com/dewei/SentimentRadar/pkg/monitor"
	"github.com/dewei/SentimentRadar/pkg/repository"
	"github.com/dewei/SentimentRadar/pkg/sentiment"
)

func stock(code, name string, days int, concepts ...string) model.LimitStock {
	return model.LimitStock{
		StockCode:      code,
		StockName:      name,
		TradeDate:      "2025-01-10",
		LimitType:      model.LimitUp,
		ChangePct:      10,
		ContinuousDays: days,
		Concepts:       concepts,
	}
}

type testEnv struct {
	router   *gin.Engine
	handlers *Handlers
	store    *repository.MemoryStore
	monitor  *monitor.Monitor
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := repository.NewMemoryStore()
	require.NoError(t, store.SaveSnapshot(ctx, &model.MarketSnapshot{
		TradeDate:      "2025-01-10",
		Distribution:   model.BoardDistribution{1: 2, 2: 1, 4: 1},
		LimitUpCount:   4,
		LimitDownCount: 1,
		ExplosionRate:  20,
	}))
	require.NoError(t, store.SaveLimitStocks(ctx, []model.LimitStock{
		stock("600100", "龙头", 4, "机器人"),
		stock("600101", "二板", 2, "机器人"),
		stock("600102", "首板", 1, "机器人"),
		stock("000001", "银行股", 1, "银行"),
		{StockCode: "600200", TradeDate: "2025-01-10", LimitType: model.LimitDown, ContinuousDays: 1},
	}))
	require.NoError(t, store.SaveHotConcepts(ctx, []model.HotConcept{
		{ConceptName: "机器人", TradeDate: "2025-01-10", Rank: 1, LimitUpCount: 3, DayChangePct: 4.2},
		{ConceptName: "银行", TradeDate: "2025-01-10", Rank: 2, LimitUpCount: 1, DayChangePct: 1.1},
	}))

	svc := sentiment.NewService(store, nil, sentiment.DefaultOptions())
	m := monitor.NewMonitor(nil)
	h := NewHandlers(Deps{
		Store:    store,
		Service:  svc,
		Backtest: backtest.NewAccumulator(store, svc, nil, nil),
		Monitor:  m,
	})

	srv := NewServer(ServerOptions{})
	srv.SetupRoutes(h)
	return &testEnv{router: srv.Router(), handlers: h, store: store, monitor: m}
}

func (e *testEnv) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthAndReady(t *testing.T) {
	env := setup(t)

	assert.Equal(t, http.StatusOK, env.do("GET", "/health").Code)

	env.monitor.UpdateStatus("database", monitor.StatusHealthy, "")
	assert.Equal(t, http.StatusOK, env.do("GET", "/ready").Code)

	env.monitor.UpdateStatus("redis", monitor.StatusUnhealthy, "down")
	w := env.do("GET", "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_ready", decode(t, w)["status"])

	assert.Equal(t, http.StatusOK, env.do("GET", "/metrics").Code)
}

func TestGetEmotionStage(t *testing.T) {
	env := setup(t)

	w := env.do("GET", "/api/v1/sentiment/stage?trade_date=2025/01/10")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/api/v1/sentiment/stage?trade_date=20250110")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["cached"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "2025-01-10", data["trade_date"])

	w = env.do("GET", "/api/v1/sentiment/stage?trade_date=2025-01-10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["cached"])

	// 新的阶段消息清除缓存
	payload, err := messaging.Encode(model.EmotionStageRecord{TradeDate: "2025-01-10"})
	require.NoError(t, err)
	require.NoError(t, env.handlers.OnStageMessage(messaging.SubjectStage, payload))
	w = env.do("GET", "/api/v1/sentiment/stage?trade_date=2025-01-10")
	assert.Equal(t, false, decode(t, w)["cached"])

	// 不指定日期时使用最近一个快照
	w = env.do("GET", "/api/v1/sentiment/stage")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-01-10", decode(t, w)["data"].(map[string]interface{})["trade_date"])
}

func TestMissingSnapshotReturnsPlaceholder(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		w := env.do("GET", "/api/v1/sentiment/stage?trade_date=2025-01-09")
		require.Equal(t, http.StatusNotFound, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["cached"], "占位阶段不写入缓存")
		assert.NotEmpty(t, body["error"])
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "2025-01-09", data["trade_date"])
		assert.Equal(t, true, data["insufficient_data"])
	}
	_, hit := env.handlers.Stages.GetStage(ctx, "2025-01-09")
	assert.False(t, hit)

	w := env.do("GET", "/api/v1/sentiment/analysis?trade_date=2025-01-09")
	require.Equal(t, http.StatusNotFound, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	stage := data["emotion_dashboard"].(map[string]interface{})["stage"].(map[string]interface{})
	assert.Equal(t, true, stage["insufficient_data"])

	w = env.do("GET", "/api/v1/sentiment/ladder?trade_date=2025-01-09")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["data"].(map[string]interface{})["available"])
	_, hit = env.handlers.Stages.GetLadder(ctx, "2025-01-09")
	assert.False(t, hit, "不可用的梯队不写入缓存")
}

// brokenCache 读写全部失败
type brokenCache struct {
	sets int
}

func (b *brokenCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, errors.New("connection refused")
}

func (b *brokenCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	b.sets++
	return errors.New("connection refused")
}

func (b *brokenCache) Delete(ctx context.Context, keys ...string) error {
	return errors.New("connection refused")
}

func TestCacheWriteFailureStillServes(t *testing.T) {
	env := setup(t)
	backend := &brokenCache{}
	env.handlers.Stages = cache.NewStageCache(backend, 0)

	w := env.do("GET", "/api/v1/sentiment/stage?trade_date=2025-01-10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["cached"])

	w = env.do("GET", "/api/v1/sentiment/ladder?trade_date=2025-01-10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["data"].(map[string]interface{})["available"])
	assert.Equal(t, 2, backend.sets)
}

func TestAnalysisAndLadder(t *testing.T) {
	env := setup(t)

	w := env.do("GET", "/api/v1/sentiment/analysis?trade_date=2025-01-10")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Contains(t, data, "emotion_dashboard")
	assert.Contains(t, data, "leader_analysis")

	w = env.do("GET", "/api/v1/sentiment/ladder?trade_date=2025-01-10")
	require.Equal(t, http.StatusOK, w.Code)
	ladder := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, ladder["available"])
	_, hit := env.handlers.Stages.GetLadder(context.Background(), "2025-01-10")
	assert.True(t, hit)

	w = env.do("GET", "/api/v1/sentiment/ladder/export?trade_date=2025-01-10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "concept_ladder_20250110.xlsx")
	assert.NotZero(t, w.Body.Len())

	w = env.do("GET", "/api/v1/sentiment/ladder/export?start_date=2025-01-13&end_date=2025-01-10")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPremiumEndpoints(t *testing.T) {
	env := setup(t)

	w := env.do("GET", "/api/v1/premium/600100.SH?trade_date=2025-01-10")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "600100", data["stock_code"])

	w = env.do("GET", "/api/v1/premium/600999?trade_date=2025-01-10")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("GET", "/api/v1/premium/12?trade_date=2025-01-10")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/api/v1/premium?trade_date=2025-01-10&limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(2), body["total"])
	scores := body["data"].([]interface{})
	first := scores[0].(map[string]interface{})["total_score"].(float64)
	second := scores[1].(map[string]interface{})["total_score"].(float64)
	assert.GreaterOrEqual(t, first, second)

	w = env.do("GET", "/api/v1/export/premium?trade_date=2025-01-10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
}

func TestLimitStocksAndHotConcepts(t *testing.T) {
	env := setup(t)

	w := env.do("GET", "/api/v1/limit-stocks?trade_date=2025-01-10&limit_type=bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/api/v1/limit-stocks?trade_date=2025-01-10&limit_type=limit_up&min_continuous_days=2")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(2), body["total"])
	first := body["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "600100", first["stock_code"])

	w = env.do("GET", "/api/v1/concepts/hot?trade_date=2025-01-10&top_n=1")
	require.Equal(t, http.StatusOK, w.Code)
	concepts := decode(t, w)["data"].([]interface{})
	require.Len(t, concepts, 1)
	assert.Equal(t, "机器人", concepts[0].(map[string]interface{})["concept_name"])
}

func TestBacktestEndpoints(t *testing.T) {
	env := setup(t)

	w := env.do("POST", "/api/v1/backtest/save/20250110?next_trade_date=2025-01-13&limit=10")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(4), res["success"])

	w = env.do("POST", "/api/v1/backtest/save/bad")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/api/v1/backtest/results?start_date=2025-01-10&page_size=2")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(4), body["total"])
	records := body["data"].([]interface{})
	require.Len(t, records, 2)

	w = env.do("GET", "/api/v1/backtest/statistics?trade_date=2025-01-10")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(4), stats["total"])

	w = env.do("GET", "/api/v1/backtest/correlation")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do("GET", "/api/v1/backtest/export?start_date=2025-01-10&end_date=2025-01-10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "premium_backtest_20250110_20250110.xlsx")

	w = env.do("DELETE", "/api/v1/backtest/records")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	id := records[0].(map[string]interface{})["id"].(string)
	w = env.do("DELETE", "/api/v1/backtest/records?id="+id)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["deleted"])
}

func TestFailMapsErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		code int
	}{
		{model.ErrInvalidDate, http.StatusBadRequest},
		{model.ErrSnapshotNotFound, http.StatusNotFound},
		{model.ErrUpstream, http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		fail(ctx, "x", c.err)
		assert.Equal(t, c.code, w.Code, c.err.Error())
	}
}
