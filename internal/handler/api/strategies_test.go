package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StratForge/internal/domain/models"
	domrepo "StratForge/internal/domain/repository"
	"StratForge/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCandleStore struct {
	candles []models.Candle
	gotN    int
	gotTF   domrepo.Timeframe
	err     error
}

func (s *stubCandleStore) GetCandles(context.Context, string, time.Time, time.Time, domrepo.Timeframe) ([]models.Candle, error) {
	return nil, fmt.Errorf("not used")
}

func (s *stubCandleStore) GetLatestNCandles(_ context.Context, _ string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	s.gotN, s.gotTF = n, tf
	return s.candles, s.err
}

func (s *stubCandleStore) Store(context.Context, models.Candle) error        { return nil }
func (s *stubCandleStore) StoreBatch(context.Context, []models.Candle) error { return nil }
func (s *stubCandleStore) Health(context.Context) error                      { return nil }

func candlesRequest(t *testing.T, store domrepo.CandleStore, target string) *httptest.ResponseRecorder {
	t.Helper()
	uc := usecase.NewStrategiesUseCase(nil, nil, nil, store, nil)
	h := NewStrategiesEchoHandler(nil, uc)

	e := echo.New()
	h.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestCandlesPreview(t *testing.T) {
	bucket := time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC)
	store := &stubCandleStore{candles: []models.Candle{
		{Bucket: bucket, Symbol: "BTCUSDT", Timeframe: "5m", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
	}}

	rec := candlesRequest(t, store, "/api/candles/BTCUSDT/5m?limit=25")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, store.gotN)
	assert.Equal(t, domrepo.Timeframe("5m"), store.gotTF)

	var body struct {
		Status int                     `json:"status"`
		Data   []models.CandleResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, body.Status)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "2024-03-01T00:05:00Z", body.Data[0].Bucket)
	assert.Equal(t, 1.5, body.Data[0].Close)
}

func TestCandlesPreviewLimitDefault(t *testing.T) {
	store := &stubCandleStore{}
	rec := candlesRequest(t, store, "/api/candles/BTCUSDT/1h?limit=junk")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, store.gotN)
	assert.Equal(t, domrepo.Timeframe("1h"), store.gotTF)
}

func TestCandlesPreviewBadTimeframe(t *testing.T) {
	store := &stubCandleStore{}
	rec := candlesRequest(t, store, "/api/candles/BTCUSDT/5w")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.Status)
	assert.Zero(t, store.gotN)
}
