package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/apperrors"
	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/metrics"
	"github.com/avast/retry-go/v4"
)

const (
	maxResponseSize = 8 << 20
	fetchAttempts   = 3
	fetchRetryDelay = 200 * time.Millisecond
)

// retryableStatus lists statuses worth another attempt; everything else non-2xx is final.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// fetch performs a GET against requestURL and returns the raw body of a 2xx response.
// Non-2xx statuses and transport failures are reported as *apperrors.ErrRemoteUnavailable.
func (c *client) fetch(ctx context.Context, endpoint, requestURL string) (io.Reader, error) {
	logger := config.GetLogger()

	body, err := retry.DoWithData(
		func() ([]byte, error) {
			return c.fetchOnce(ctx, endpoint, requestURL)
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(fetchRetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug().Err(err).Str("endpoint", endpoint).Uint("attempt", n+1).Msg("Retrying Bangumi request")
		}),
	)
	if err != nil {
		metrics.BangumiRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		var remoteErr *apperrors.ErrRemoteUnavailable
		if !errors.As(err, &remoteErr) {
			err = &apperrors.ErrRemoteUnavailable{Endpoint: endpoint, Err: err}
		}
		return nil, err
	}

	metrics.BangumiRequestsTotal.WithLabelValues(endpoint, "success").Inc()
	return bytes.NewReader(body), nil
}

func (c *client) fetchOnce(ctx context.Context, endpoint, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", config.GetUserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.ErrRemoteUnavailable{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &apperrors.ErrRemoteUnavailable{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &apperrors.ErrRemoteUnavailable{Endpoint: endpoint, Err: err}
	}
	return body, nil
}

// isRetryable retries transport failures and throttling/gateway statuses.
func isRetryable(err error) bool {
	var remoteErr *apperrors.ErrRemoteUnavailable
	if !errors.As(err, &remoteErr) {
		return false
	}
	if remoteErr.StatusCode == 0 {
		return !errors.Is(remoteErr.Err, context.Canceled) && !errors.Is(remoteErr.Err, context.DeadlineExceeded)
	}
	return retryableStatus[remoteErr.StatusCode]
}
