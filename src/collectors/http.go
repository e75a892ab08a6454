package collectors

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
	userAgent              = "SentimentVelocityTracker/1.0"

	resultOK    = "ok"
	resultError = "error"
	resultEmpty = "empty"
)

// RateLimiter blocks until a request may be sent. *rate.Limiter satisfies it.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// NewRateLimiter allows perMinute requests per minute with a full-minute
// burst. A non-positive budget disables limiting.
func NewRateLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// Recorder counts requests per source. metrics.Recorder satisfies it.
type Recorder interface {
	RecordCollectorRequest(source, result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCollectorRequest(string, string) {}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()
	if code >= 500 && code <= 599 {
		return true
	}
	return code == 429 || code == 408
}

func newRestyClient(baseURL string, cfg Config) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)
}

// flexInt decodes JSON numbers and numeric strings alike.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var n json.Number
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n = json.Number(s)
	} else if string(b) == "null" {
		*f = 0
		return nil
	} else {
		n = json.Number(b)
	}

	if i, err := n.Int64(); err == nil {
		*f = flexInt(i)
		return nil
	}
	v, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}
