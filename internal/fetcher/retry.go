package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
)

// withRetry runs attempt until it succeeds, returns an error that is not a
// retryable *FetchError, or cfg.MaxAttempts is spent.
func withRetry(
	ctx context.Context,
	cfg Config,
	log logger.Logger,
	url string,
	attempt func() (*Page, error),
) (*Page, error) {
	var page *Page

	op := func() error {
		p, err := attempt()
		if err == nil {
			page = p
			return nil
		}

		var fe *FetchError
		if errors.As(err, &fe) && fe.Retryable() {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		log.Debug("Retrying page fetch",
			logger.URL(url),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, retryPolicy(ctx, cfg), notify); err != nil {
		return nil, err
	}

	return page, nil
}

func retryPolicy(ctx context.Context, cfg Config) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.InitialDelay
	exp.MaxInterval = cfg.MaxDelay
	exp.MaxElapsedTime = 0

	retries := uint64(max(cfg.MaxAttempts-1, 0))
	return backoff.WithContext(backoff.WithMaxRetries(exp, retries), ctx)
}
