package migrations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:migrations_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(&DataMigration{}, "mentions")
	})
	return db
}

func TestRunOnce_RunsOnlyOnce(t *testing.T) {
	db := newTestDB(t)

	calls := 0
	fn := func(*gorm.DB) error {
		calls++
		return nil
	}

	require.NoError(t, RunOnce(db, "test_once", fn))
	require.NoError(t, RunOnce(db, "test_once", fn))
	require.Equal(t, 1, calls)

	var count int64
	require.NoError(t, db.Model(&DataMigration{}).Where("id = ?", "test_once").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRunOnce_FailureIsNotRecorded(t *testing.T) {
	db := newTestDB(t)

	err := RunOnce(db, "test_fail", func(*gorm.DB) error { return errors.New("boom") })
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&DataMigration{}).Where("id = ?", "test_fail").Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestRunOnce_Validation(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, RunOnce(nil, "x", func(*gorm.DB) error { return nil }))
	require.Error(t, RunOnce(db, "", func(*gorm.DB) error { return nil }))
	require.Error(t, RunOnce(db, "nil_fn", nil))
}

func TestNormalizeTickerCase(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Exec("CREATE TABLE mentions (id integer primary key, ticker text)").Error)
	require.NoError(t, db.Exec("INSERT INTO mentions (ticker) VALUES (' aapl'), ('TSLA')").Error)

	require.NoError(t, normalizeTickerCase(db))

	var tickers []string
	require.NoError(t, db.Raw("SELECT ticker FROM mentions ORDER BY ticker").Scan(&tickers).Error)
	require.Equal(t, []string{"AAPL", "TSLA"}, tickers)
}

func TestRun_RecordsEveryStep(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, Run(db))
	require.NoError(t, Run(db))

	var ids []string
	require.NoError(t, db.Model(&DataMigration{}).Order("id").Pluck("id", &ids).Error)
	require.Equal(t, []string{TickerCaseID, PaperPositionSizeID}, ids)
}
