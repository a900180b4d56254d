package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func queryContext(t *testing.T, rawQuery string) echo.Context {
	t.Helper()
	req := httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestQueryInt(t *testing.T) {
	assert.Equal(t, 25, QueryInt(queryContext(t, "limit=25"), "limit", 100))
	assert.Equal(t, 100, QueryInt(queryContext(t, "limit=abc"), "limit", 100))
	assert.Equal(t, 100, QueryInt(queryContext(t, ""), "limit", 100))
}

func TestQueryTime(t *testing.T) {
	def := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	got := QueryTime(queryContext(t, "from=2024-06-01T12:00:00Z"), "from", def)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), got.UTC())

	assert.True(t, QueryTime(queryContext(t, "from=garbage"), "from", def).Equal(def))
	assert.True(t, QueryTime(queryContext(t, ""), "from", def).Equal(def))
}
