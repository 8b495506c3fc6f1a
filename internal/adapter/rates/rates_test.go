package rates

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"currency-wallet/config"
	"currency-wallet/internal/core/ports/mocks"
	"currency-wallet/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ==================== StaticRateSource Tests ====================

func TestStaticRateSource_Convert(t *testing.T) {
	src := NewStaticRateSource()
	ctx := context.Background()

	tests := []struct {
		from, to string
		amount   string
		want     string
	}{
		{"USD", "EUR", "10", "9.1"},
		{"USD", "INR", "1", "83"},
		{"EUR", "USD", "100", "110"},
		{"GBP", "JPY", "2", "362"},
		{"JPY", "GBP", "1000", "5.5"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.from, tt.to), func(t *testing.T) {
			got, err := src.Convert(ctx, tt.from, tt.to, dec(tt.amount))
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestStaticRateSource_CaseInsensitive(t *testing.T) {
	src := NewStaticRateSource()

	got, err := src.Convert(context.Background(), "usd", "eur", dec("10"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("9.1")))
}

func TestStaticRateSource_IdenticalPair(t *testing.T) {
	src := NewStaticRateSource()

	got, err := src.Convert(context.Background(), "USD", "USD", dec("7.77"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("7.77")))
}

func TestStaticRateSource_UnsupportedPair(t *testing.T) {
	src := NewStaticRateSource()

	_, err := src.Convert(context.Background(), "USD", "XYZ", dec("1"))
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FX_002", appErr.Code)
}

// ==================== APIRateSource Tests ====================

func apiSourceFor(t *testing.T, handler http.HandlerFunc) (*APIRateSource, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	src := NewAPIRateSource(config.RatesConfig{
		APIURL:  srv.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, zerolog.Nop())
	return src, srv
}

func TestAPIRateSource_Convert(t *testing.T) {
	src, _ := apiSourceFor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/test-key/latest/USD", r.URL.Path)
		fmt.Fprint(w, `{"result":"success","base_code":"USD","conversion_rates":{"EUR":0.91,"INR":83.0}}`)
	})

	got, err := src.Convert(context.Background(), "usd", "eur", dec("10"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("9.1")), "got %s", got)
}

func TestAPIRateSource_UnsupportedCode(t *testing.T) {
	src, _ := apiSourceFor(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"result":"error","error-type":"unsupported-code"}`)
	})

	_, err := src.Convert(context.Background(), "USD", "XYZ", dec("1"))
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FX_002", appErr.Code)
}

func TestAPIRateSource_MissingTargetRate(t *testing.T) {
	src, _ := apiSourceFor(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"result":"success","base_code":"USD","conversion_rates":{"EUR":0.91}}`)
	})

	_, err := src.Convert(context.Background(), "USD", "GBP", dec("1"))
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FX_002", appErr.Code)
}

func TestAPIRateSource_HTTPError(t *testing.T) {
	src, _ := apiSourceFor(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	})

	_, err := src.Convert(context.Background(), "USD", "EUR", dec("1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestAPIRateSource_IdenticalPairSkipsNetwork(t *testing.T) {
	called := false
	src, _ := apiSourceFor(t, func(http.ResponseWriter, *http.Request) { called = true })

	got, err := src.Convert(context.Background(), "USD", "USD", dec("5"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("5")))
	assert.False(t, called)
}

// ==================== CachedRateSource Tests ====================

func TestCachedRateSource_Hit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inner := mocks.NewMockRateSource(ctrl)
	cache := mocks.NewMockRateCache(ctrl)
	src := NewCachedRateSource(inner, cache, 10*time.Minute, zerolog.Nop())

	ctx := context.Background()
	cache.EXPECT().GetRate(ctx, "USD", "EUR").Return(dec("0.91"), true, nil)
	// No inner call on a hit.

	got, err := src.Convert(ctx, "USD", "EUR", dec("10"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("9.1")))
}

func TestCachedRateSource_MissFetchesAndStores(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inner := mocks.NewMockRateSource(ctrl)
	cache := mocks.NewMockRateCache(ctrl)
	src := NewCachedRateSource(inner, cache, 10*time.Minute, zerolog.Nop())

	ctx := context.Background()
	cache.EXPECT().GetRate(ctx, "USD", "EUR").Return(decimal.Zero, false, nil)
	inner.EXPECT().Convert(ctx, "USD", "EUR", gomock.Any()).Return(dec("0.91"), nil)
	cache.EXPECT().SetRate(ctx, "USD", "EUR", dec("0.91"), 10*time.Minute).Return(nil)

	got, err := src.Convert(ctx, "USD", "EUR", dec("10"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("9.1")))
}

func TestCachedRateSource_CacheFailureFallsThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inner := mocks.NewMockRateSource(ctrl)
	cache := mocks.NewMockRateCache(ctrl)
	src := NewCachedRateSource(inner, cache, 10*time.Minute, zerolog.Nop())

	ctx := context.Background()
	cache.EXPECT().GetRate(ctx, "USD", "EUR").Return(decimal.Zero, false, errors.New("redis down"))
	inner.EXPECT().Convert(ctx, "USD", "EUR", gomock.Any()).Return(dec("0.91"), nil)
	cache.EXPECT().SetRate(ctx, "USD", "EUR", dec("0.91"), 10*time.Minute).Return(errors.New("redis down"))

	got, err := src.Convert(ctx, "USD", "EUR", dec("10"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("9.1")))
}

func TestCachedRateSource_InnerFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inner := mocks.NewMockRateSource(ctrl)
	cache := mocks.NewMockRateCache(ctrl)
	src := NewCachedRateSource(inner, cache, 10*time.Minute, zerolog.Nop())

	ctx := context.Background()
	cache.EXPECT().GetRate(ctx, "USD", "EUR").Return(decimal.Zero, false, nil)
	inner.EXPECT().Convert(ctx, "USD", "EUR", gomock.Any()).Return(decimal.Zero, errors.New("provider down"))

	_, err := src.Convert(ctx, "USD", "EUR", dec("10"))
	assert.Error(t, err)
}
