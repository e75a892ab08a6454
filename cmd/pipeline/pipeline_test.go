package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sentimentvelocity/src/collectors"
	"sentimentvelocity/src/database"
	"sentimentvelocity/src/metrics"
	"sentimentvelocity/src/model"
	"sentimentvelocity/src/paper"
	pipe "sentimentvelocity/src/pipeline"
	"sentimentvelocity/src/signals"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

func quietLog() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

func feedServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/filter/all-stocks":
			_, _ = w.Write([]byte(`{"results":[{"ticker":"gme","mentions":"40","rank":1},{"ticker":"amc","mentions":12,"rank":2}]}`))
		case "/quote":
			_, _ = w.Write([]byte(`{"c":20,"h":21,"l":19,"o":19.5,"pc":19}`))
		case "/news-sentiment":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestWire_CollectorsOnlyWhenEnabled(t *testing.T) {
	db := setupSQLite(t)
	rec := metrics.New(prometheus.NewRegistry())

	deps := Wire(db, collectors.Config{}, paper.DefaultConfig(), rec, quietLog())
	assert.Nil(t, deps.MentionFeed)
	assert.Nil(t, deps.QuoteFeed)
	require.NotNil(t, deps.Paper)
	assert.NotNil(t, deps.Metrics)
}

func TestWire_RunCollectsAndStores(t *testing.T) {
	srv := feedServer()
	defer srv.Close()

	db := setupSQLite(t)
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	collect := collectors.Config{
		Enabled:          true,
		ApeWisdomBaseURL: srv.URL,
		ApeWisdomTopN:    10,
		FinnhubBaseURL:   srv.URL,
		FinnhubAPIKey:    "key",
		Timeout:          2 * time.Second,
		Workers:          2,
	}
	deps := Wire(db, collect, paper.DefaultConfig(), rec, quietLog())
	require.NotNil(t, deps.MentionFeed)
	require.NotNil(t, deps.QuoteFeed)

	report, err := pipe.NewRunner(pipe.DefaultConfig(), deps, signals.DefaultThresholds(), quietLog()).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pipe.StatusOK, report.Status)
	assert.Equal(t, 4, report.Collected)

	var mentions, quotes int64
	require.NoError(t, db.Model(&model.Mention{}).Count(&mentions).Error)
	require.NoError(t, db.Model(&model.PriceQuote{}).Count(&quotes).Error)
	assert.EqualValues(t, 2, mentions)
	assert.EqualValues(t, 2, quotes)

	count, err := testutil.GatherAndCount(reg, "sentiment_pipeline_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
