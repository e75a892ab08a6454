package importprices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sentimentvelocity/src/database"
	"sentimentvelocity/src/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nntaoli-project/goex"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func quietLog() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

func setupDBMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

func setupMockBinanceServer(t *testing.T) (*httptest.Server, *[]string) {
	var symbols []string
	handler := http.NewServeMux()
	handler.HandleFunc("/api/v3/klines", func(w http.ResponseWriter, r *http.Request) {
		symbols = append(symbols, r.URL.Query().Get("symbol"))
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`[
			[1704067200000, "42000.00", "42500.00", "41800.00", "42200.00", "1500.5", 1704153599999, "0", 100, "0", "0", "0"],
			[1704153600000, "42200.00", "44000.00", "42100.00", "44310.00", "2100.0", 1704239999999, "0", 120, "0", "0", "0"]
		]`))
		if err != nil {
			t.Log(err)
		}
	})
	handler.HandleFunc("/api/v3/time", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"serverTime": 1704153600000}`))
	})
	return httptest.NewServer(handler), &symbols
}

func TestConfig_SymbolList(t *testing.T) {
	c := &Config{Symbols: " btc, ,ETH,"}
	assert.Equal(t, []string{"BTC", "ETH"}, c.SymbolList())
}

func TestToQuotes(t *testing.T) {
	klines := []goex.Kline{
		{Timestamp: 1704067200, Open: 1, High: 2, Low: 1, Close: 100, Vol: 10},
		{Timestamp: 1704153600 + 3600, Open: 1, High: 2, Low: 1, Close: 0, Vol: 10},
		{Timestamp: 1704240000, Open: 100, High: 120, Low: 99, Close: 110, Vol: 20},
	}

	quotes := toQuotes("BTC", klines)
	require.Len(t, quotes, 2, "non-positive closes are dropped")

	assert.Equal(t, "BTC", quotes[0].Ticker)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), quotes[0].CollectedAt)
	assert.True(t, quotes[0].PrevClose.IsZero())
	assert.Zero(t, quotes[0].ChangePct)

	assert.Equal(t, "100", quotes[1].PrevClose.String())
	assert.InDelta(t, 10.0, quotes[1].ChangePct, 1e-9)
	assert.Equal(t, 20.0, quotes[1].Volume)
}

func TestPriceImporter_Start(t *testing.T) {
	server, symbols := setupMockBinanceServer(t)
	defer server.Close()

	db := setupSQLite(t)
	imp := &PriceImporter{
		Log: quietLog(),
		DB:  db,
		Config: &Config{
			StartDt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDt:    time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			Symbols:  "BTC",
			Quote:    "USDT",
			Limit:    1000,
			Endpoint: server.URL,
		},
	}

	require.NoError(t, imp.Start(context.Background()))
	// a second import upserts the same days
	require.NoError(t, imp.Start(context.Background()))

	var rows []model.PriceQuote
	require.NoError(t, db.Order("collected_at").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "BTC", rows[0].Ticker)
	assert.InDelta(t, 42200.0, rows[0].Price.InexactFloat64(), 1e-9)
	assert.InDelta(t, 44310.0, rows[1].Price.InexactFloat64(), 1e-9)
	assert.InDelta(t, 5.0, rows[1].ChangePct, 1e-9)
	assert.Equal(t, []string{"BTCUSDT", "BTCUSDT"}, *symbols)
}

func TestPriceImporter_determineStartPoint(t *testing.T) {
	db, mock := setupDBMock(t)
	imp := &PriceImporter{Log: quietLog(), DB: db, Config: &Config{}}

	latest := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "price_quotes" WHERE ticker = \$1 ORDER BY collected_at DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticker", "price", "collected_at"}).
			AddRow(1, "BTC", "61000", latest))

	start, err := imp.determineStartPoint("BTC")
	require.NoError(t, err)
	require.NotNil(t, start)
	assert.Equal(t, latest, *start)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceImporter_determineStartPoint_NoHistory(t *testing.T) {
	db, mock := setupDBMock(t)
	imp := &PriceImporter{Log: quietLog(), DB: db, Config: &Config{}}

	mock.ExpectQuery(`SELECT \* FROM "price_quotes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticker", "collected_at"}))

	start, err := imp.determineStartPoint("ETH")
	require.NoError(t, err)
	assert.Nil(t, start)
	require.NoError(t, mock.ExpectationsWereMet())
}
