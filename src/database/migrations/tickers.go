package migrations

import (
	"fmt"

	"gorm.io/gorm"
)

// tables whose ticker column is matched case-sensitively by the repositories
var tickerTables = []string{"mentions", "insider_trades", "price_quotes", "velocity_metrics", "signals", "paper_trades"}

// normalizeTickerCase upper-cases and trims tickers written by early collectors.
func normalizeTickerCase(db *gorm.DB) error {
	for _, table := range tickerTables {
		if !db.Migrator().HasTable(table) {
			continue
		}
		sql := fmt.Sprintf("UPDATE %s SET ticker = UPPER(TRIM(ticker)) WHERE ticker <> UPPER(TRIM(ticker))", table)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("normalize %s: %w", table, err)
		}
	}
	return nil
}

// backfillPositionSize fills position_size for rows created before the column existed.
func backfillPositionSize(db *gorm.DB) error {
	if !db.Migrator().HasTable("paper_trades") {
		return nil
	}
	return db.Exec("UPDATE paper_trades SET position_size = shares * entry_price WHERE position_size = 0 OR position_size IS NULL").Error
}
