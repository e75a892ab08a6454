package collectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sentimentvelocity/src/model"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const sourceApeWisdom = "apewisdom"

type apeWisdomItem struct {
	Ticker         string  `json:"ticker"`
	Mentions       flexInt `json:"mentions"`
	Upvotes        flexInt `json:"upvotes"`
	Rank           flexInt `json:"rank"`
	Mentions24hAgo flexInt `json:"mentions_24h_ago"`
	Rank24hAgo     flexInt `json:"rank_24h_ago"`
}

type apeWisdomResponse struct {
	Results []apeWisdomItem `json:"results"`
}

// ApeWisdomClient fetches the most mentioned stocks across social media.
type ApeWisdomClient struct {
	http    *resty.Client
	topN    int
	limiter RateLimiter
	metrics Recorder
	log     *logrus.Entry
	now     func() time.Time
}

func NewApeWisdomClient(cfg Config, limiter RateLimiter, log *logrus.Entry) *ApeWisdomClient {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if limiter == nil {
		limiter = NewRateLimiter(0)
	}
	return &ApeWisdomClient{
		http:    newRestyClient(cfg.ApeWisdomBaseURL, cfg),
		topN:    cfg.ApeWisdomTopN,
		limiter: limiter,
		metrics: nopRecorder{},
		log:     log.WithField("component", "apewisdom"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (c *ApeWisdomClient) WithRecorder(r Recorder) *ApeWisdomClient {
	c.metrics = r
	return c
}

func (c *ApeWisdomClient) WithClock(now func() time.Time) *ApeWisdomClient {
	c.now = now
	return c
}

// Collect returns up to topN mentions, skipping items without a ticker.
func (c *ApeWisdomClient) Collect(ctx context.Context) ([]model.Mention, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body apeWisdomResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		ForceContentType("application/json").
		Get("/filter/all-stocks")
	if err != nil {
		c.metrics.RecordCollectorRequest(sourceApeWisdom, resultError)
		return nil, fmt.Errorf("apewisdom request: %w", err)
	}
	if resp.IsError() {
		c.metrics.RecordCollectorRequest(sourceApeWisdom, resultError)
		return nil, fmt.Errorf("apewisdom status %d", resp.StatusCode())
	}

	items := body.Results
	if c.topN > 0 && len(items) > c.topN {
		items = items[:c.topN]
	}

	at := c.now()
	out := make([]model.Mention, 0, len(items))
	for _, it := range items {
		ticker := strings.ToUpper(strings.TrimSpace(it.Ticker))
		if ticker == "" {
			continue
		}
		out = append(out, model.Mention{
			Ticker:         ticker,
			Mentions:       int(it.Mentions),
			Upvotes:        int(it.Upvotes),
			Rank:           int(it.Rank),
			Mentions24hAgo: int(it.Mentions24hAgo),
			Rank24hAgo:     int(it.Rank24hAgo),
			Source:         model.MentionSourceApeWisdom,
			CollectedAt:    at,
		})
	}

	c.metrics.RecordCollectorRequest(sourceApeWisdom, resultOK)
	c.log.WithField("count", len(out)).Info("Collected mentions")
	return out, nil
}
