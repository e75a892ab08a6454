package importprices

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sentimentvelocity/src/model"
	"sentimentvelocity/src/repository"
	"sentimentvelocity/src/utils"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const millis = 1000

type quoteUpserter interface {
	UpsertQuotes(ctx context.Context, quotes []model.PriceQuote) error
}

// PriceImporter loads daily Binance klines into price_quotes so crypto
// tickers and benchmarks have history for backtests and technical analysis.
// Symbols are stored without the quote currency ("BTC", not "BTC_USDT").
type PriceImporter struct {
	Log      *logger.Entry
	DB       *gorm.DB
	Config   *Config
	exchange goex.API
	store    quoteUpserter
}

func (o *PriceImporter) Start(ctx context.Context) error {
	if o.Config == nil {
		o.Config = GetConfig()
	}
	if o.Log == nil {
		o.Log = logger.WithField("cmd", "import_prices")
	}
	if o.exchange == nil {
		o.exchange = o.newBinanceInstance()
	}
	if o.store == nil {
		o.store = repository.NewPriceRepositoryWithDB(o.DB)
	}
	if o.Config.EndDt.IsZero() {
		o.Config.EndDt = time.Now().UTC()
	}

	var errs []error
	for _, symbol := range o.Config.SymbolList() {
		if err := o.importSymbol(ctx, symbol); err != nil {
			o.Log.WithError(err).WithField("symbol", symbol).Error("import failed")
			errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
		}
	}
	return errors.Join(errs...)
}

func (o *PriceImporter) newBinanceInstance() *binance.Binance {
	endpoint := o.Config.Endpoint
	if endpoint == "" {
		endpoint = binance.GLOBAL_API_BASE_URL
	}
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   endpoint,
	}
	return binance.NewWithConfig(apiConfig)
}

func (o *PriceImporter) importSymbol(ctx context.Context, symbol string) error {
	start := o.Config.StartDt
	if o.Config.AutoMode {
		latest, err := o.determineStartPoint(symbol)
		if err != nil {
			return err
		}
		if latest != nil {
			start = *latest
		}
	}

	klines, err := o.fetchDailySeries(symbol, start, o.Config.EndDt)
	if err != nil {
		return err
	}

	quotes := toQuotes(symbol, klines)
	if len(quotes) == 0 {
		o.Log.WithField("symbol", symbol).Info("no klines in range")
		return nil
	}
	if err := o.store.UpsertQuotes(ctx, quotes); err != nil {
		return fmt.Errorf("upsert quotes: %w", err)
	}

	o.Log.WithFields(logger.Fields{
		"symbol": symbol,
		"count":  len(quotes),
		"from":   quotes[0].CollectedAt.Format(time.DateOnly),
		"to":     quotes[len(quotes)-1].CollectedAt.Format(time.DateOnly),
	}).Info("daily prices inserted or updated in database")
	return nil
}

// determineStartPoint returns the day of the newest stored quote, or nil
// when the symbol has no history yet. The newest day is fetched again so a
// partial candle gets replaced.
func (o *PriceImporter) determineStartPoint(symbol string) (*time.Time, error) {
	var latest model.PriceQuote
	err := o.DB.
		Where("ticker = ?", symbol).
		Order("collected_at DESC").
		Take(&latest).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		o.Log.
			WithField("symbol", symbol).
			WithField("StartDt", o.Config.StartDt.String()).
			Info("no stored history, start from the configured StartDt")
		return nil, nil
	}
	if err != nil {
		o.Log.WithError(err).Error("Failed to query latest collected_at")
		return nil, err
	}

	start := utils.DayStart(latest.CollectedAt)
	o.Log.
		WithField("symbol", symbol).
		WithField("StartDt", start.String()).
		Info("determineStartPoint valid date found")
	return &start, nil
}

func (o *PriceImporter) fetchDailySeries(symbol string, start, end time.Time) ([]goex.Kline, error) {
	pair := goex.NewCurrencyPair(goex.Currency{Symbol: symbol}, goex.Currency{Symbol: o.Config.Quote})

	klines, err := o.exchange.GetKlineRecords(
		pair,
		goex.KLINE_PERIOD_1DAY,
		o.Config.Limit,
		goex.OptionalParameter{}.
			Optional("startTime", start.Unix()*millis).
			Optional("endTime", end.Unix()*millis),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s: %w", pair.String(), err)
	}
	return klines, nil
}

// toQuotes maps klines to one quote per day, closing price as the price.
// PrevClose and ChangePct come from the previous kline of the batch.
func toQuotes(symbol string, klines []goex.Kline) []model.PriceQuote {
	out := make([]model.PriceQuote, 0, len(klines))
	var prev decimal.Decimal
	for _, k := range klines {
		closePrice := decimal.NewFromFloat(k.Close)
		if !closePrice.IsPositive() {
			continue
		}
		q := model.PriceQuote{
			Ticker:      symbol,
			Price:       closePrice,
			Open:        decimal.NewFromFloat(k.Open),
			High:        decimal.NewFromFloat(k.High),
			Low:         decimal.NewFromFloat(k.Low),
			Volume:      k.Vol,
			CollectedAt: utils.DayStart(time.Unix(k.Timestamp, 0)),
		}
		if prev.IsPositive() {
			q.PrevClose = prev
			q.ChangePct = closePrice.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		prev = closePrice
		out = append(out, q)
	}
	return out
}
