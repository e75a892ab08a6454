package collectors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"sentimentvelocity/src/model"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const sourceFinnhub = "finnhub"

// ErrSentimentForbidden is returned once the API key has been refused the
// news-sentiment endpoint (a paid tier feature).
var ErrSentimentForbidden = errors.New("finnhub news sentiment not available for this key")

type finnhubQuote struct {
	Current   *float64 `json:"c"`
	High      float64  `json:"h"`
	Low       float64  `json:"l"`
	Open      float64  `json:"o"`
	PrevClose float64  `json:"pc"`
}

type finnhubSentiment struct {
	CompanyNewsScore *float64 `json:"companyNewsScore"`
	Sentiment        *struct {
		BullishPercent float64 `json:"bullishPercent"`
		BearishPercent float64 `json:"bearishPercent"`
	} `json:"sentiment"`
	Buzz struct {
		Buzz               float64 `json:"buzz"`
		ArticlesInLastWeek int     `json:"articlesInLastWeek"`
	} `json:"buzz"`
}

// NewsSentiment is the per-ticker news read merged into a quote.
type NewsSentiment struct {
	Score        float64
	BullishPct   float64
	BearishPct   float64
	BuzzScore    float64
	ArticlesWeek int
}

// FinnhubClient collects quotes and news sentiment. Safe for concurrent use.
type FinnhubClient struct {
	http      *resty.Client
	apiKey    string
	workers   int
	limiter   RateLimiter
	metrics   Recorder
	log       *logrus.Entry
	now       func() time.Time
	forbidden atomic.Bool
}

func NewFinnhubClient(cfg Config, limiter RateLimiter, log *logrus.Entry) *FinnhubClient {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if limiter == nil {
		limiter = NewRateLimiter(cfg.FinnhubPerMinute)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &FinnhubClient{
		http:    newRestyClient(cfg.FinnhubBaseURL, cfg),
		apiKey:  cfg.FinnhubAPIKey,
		workers: workers,
		limiter: limiter,
		metrics: nopRecorder{},
		log:     log.WithField("component", "finnhub"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (c *FinnhubClient) WithRecorder(r Recorder) *FinnhubClient {
	c.metrics = r
	return c
}

func (c *FinnhubClient) WithClock(now func() time.Time) *FinnhubClient {
	c.now = now
	return c
}

func (c *FinnhubClient) get(ctx context.Context, path, ticker string, out interface{}) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", ticker).
		SetQueryParam("token", c.apiKey).
		SetResult(out).
		ForceContentType("application/json").
		Get(path)
	if err != nil {
		c.metrics.RecordCollectorRequest(sourceFinnhub, resultError)
		return nil, fmt.Errorf("finnhub %s %s: %w", path, ticker, err)
	}
	return resp, nil
}

// Quote returns nil without error when the response carries no current price.
func (c *FinnhubClient) Quote(ctx context.Context, ticker string) (*model.PriceQuote, error) {
	var q finnhubQuote
	resp, err := c.get(ctx, "/quote", ticker, &q)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		c.metrics.RecordCollectorRequest(sourceFinnhub, resultError)
		return nil, fmt.Errorf("finnhub quote %s: status %d", ticker, resp.StatusCode())
	}
	if q.Current == nil {
		c.metrics.RecordCollectorRequest(sourceFinnhub, resultEmpty)
		return nil, nil
	}
	c.metrics.RecordCollectorRequest(sourceFinnhub, resultOK)

	var change float64
	if q.PrevClose > 0 {
		change = (*q.Current - q.PrevClose) / q.PrevClose * 100
	}
	return &model.PriceQuote{
		Ticker:      ticker,
		Price:       decimal.NewFromFloat(*q.Current),
		ChangePct:   change,
		Open:        decimal.NewFromFloat(q.Open),
		High:        decimal.NewFromFloat(q.High),
		Low:         decimal.NewFromFloat(q.Low),
		PrevClose:   decimal.NewFromFloat(q.PrevClose),
		CollectedAt: c.now(),
	}, nil
}

// Sentiment returns nil without error when the ticker has no sentiment
// block. A 403 disables the endpoint for the lifetime of the client.
func (c *FinnhubClient) Sentiment(ctx context.Context, ticker string) (*NewsSentiment, error) {
	if c.forbidden.Load() {
		return nil, ErrSentimentForbidden
	}

	var s finnhubSentiment
	resp, err := c.get(ctx, "/news-sentiment", ticker, &s)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusForbidden {
		c.metrics.RecordCollectorRequest(sourceFinnhub, resultError)
		if !c.forbidden.Swap(true) {
			c.log.Warn("Sentiment endpoint requires a paid Finnhub plan, skipping sentiment")
		}
		return nil, ErrSentimentForbidden
	}
	if resp.IsError() {
		c.metrics.RecordCollectorRequest(sourceFinnhub, resultError)
		return nil, fmt.Errorf("finnhub sentiment %s: status %d", ticker, resp.StatusCode())
	}
	if s.Sentiment == nil {
		c.metrics.RecordCollectorRequest(sourceFinnhub, resultEmpty)
		return nil, nil
	}
	c.metrics.RecordCollectorRequest(sourceFinnhub, resultOK)

	out := &NewsSentiment{
		BullishPct:   s.Sentiment.BullishPercent,
		BearishPct:   s.Sentiment.BearishPercent,
		BuzzScore:    s.Buzz.Buzz,
		ArticlesWeek: s.Buzz.ArticlesInLastWeek,
	}
	if s.CompanyNewsScore != nil {
		out.Score = *s.CompanyNewsScore
	}
	return out, nil
}

// CollectQuotes fetches a quote per ticker and merges the news sentiment
// into it while the endpoint is available. Per-ticker failures are logged
// and joined into the returned error; the successful quotes are still
// returned, in input order.
func (c *FinnhubClient) CollectQuotes(ctx context.Context, tickers []string) ([]model.PriceQuote, error) {
	results := make([]*model.PriceQuote, len(tickers))
	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	// workers report through fail, never through the group
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			q, err := c.Quote(ctx, ticker)
			if err != nil {
				c.log.WithField("ticker", ticker).WithError(err).Warn("Quote failed")
				fail(err)
				return nil
			}
			if q == nil {
				c.log.WithField("ticker", ticker).Warn("No quote data")
				return nil
			}

			s, err := c.Sentiment(ctx, ticker)
			switch {
			case errors.Is(err, ErrSentimentForbidden):
			case err != nil:
				c.log.WithField("ticker", ticker).WithError(err).Warn("Sentiment failed")
			case s != nil:
				score := s.Score
				q.NewsSentiment = &score
				q.BullishPct = s.BullishPct
				q.BearishPct = s.BearishPct
				q.BuzzScore = s.BuzzScore
				q.ArticlesWeek = s.ArticlesWeek
			}
			results[i] = q
			return nil
		})
	}
	g.Wait()

	out := make([]model.PriceQuote, 0, len(tickers))
	for _, q := range results {
		if q != nil {
			out = append(out, *q)
		}
	}
	c.log.WithFields(logrus.Fields{"collected": len(out), "requested": len(tickers)}).Info("Collected quotes")
	return out, errors.Join(errs...)
}
