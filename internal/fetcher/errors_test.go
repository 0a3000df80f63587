package fetcher_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/newswatch/internal/fetcher"
)

func TestClassifyHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    int
		wantType  fetcher.ErrorType
		retryable bool
	}{
		{status: 403, wantType: fetcher.ErrTypeForbidden},
		{status: 404, wantType: fetcher.ErrTypeNotFound},
		{status: 408, wantType: fetcher.ErrTypeTimeout, retryable: true},
		{status: 410, wantType: fetcher.ErrTypeGone},
		{status: 429, wantType: fetcher.ErrTypeRateLimited, retryable: true},
		{status: 500, wantType: fetcher.ErrTypeUpstream, retryable: true},
		{status: 503, wantType: fetcher.ErrTypeUpstream, retryable: true},
		{status: 302, wantType: fetcher.ErrTypeUnexpected},
		{status: 418, wantType: fetcher.ErrTypeUnexpected},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("HTTP %d", tt.status), func(t *testing.T) {
			t.Parallel()

			fe := fetcher.ClassifyHTTPStatus(tt.status, "https://example.com/noticias")
			assert.Equal(t, tt.wantType, fe.Type)
			assert.Equal(t, tt.retryable, fe.Retryable())
			assert.Contains(t, fe.Error(), fmt.Sprintf("HTTP %d", tt.status))
		})
	}
}

func TestClassifyNetworkError_Unwraps(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	fe := fetcher.ClassifyNetworkError(cause, "https://example.com")

	assert.ErrorIs(t, fe, cause)
	assert.True(t, fe.Retryable())
	assert.Equal(t, fetcher.ErrTypeNetwork, fetcher.TypeOf(fmt.Errorf("page 1: %w", fe)))
	assert.Empty(t, fetcher.TypeOf(cause))
}
