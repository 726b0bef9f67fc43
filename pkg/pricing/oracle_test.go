package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solswap/pkg/swaperr"
	"solswap/pkg/types"
)

var testToken = types.Token{
	Address:  "So11111111111111111111111111111111111111112",
	Symbol:   "SOL",
	Decimals: 9,
}

func TestPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testToken.Address, r.URL.Query().Get("ids"))
		_, _ = w.Write([]byte(`{"data":{"So11111111111111111111111111111111111111112":{"id":"So11111111111111111111111111111111111111112","price":"203.123456"}}}`))
	}))
	defer srv.Close()

	oracle := NewOracle(srv.URL, 5*time.Second, time.Minute, zap.NewNop())
	price, err := oracle.Price(context.Background(), testToken)
	require.NoError(t, err)
	assert.InDelta(t, 203.123456, price, 1e-9)
}

func TestPriceCached(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"data":{"So11111111111111111111111111111111111111112":{"id":"x","price":"10"}}}`))
	}))
	defer srv.Close()

	oracle := NewOracle(srv.URL, 5*time.Second, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		price, err := oracle.Price(context.Background(), testToken)
		require.NoError(t, err)
		assert.Equal(t, 10.0, price)
	}

	assert.Equal(t, int64(1), hits.Load(), "repeated lookups within the TTL hit the cache")
}

func TestPriceMissingEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The API answers null for unknown mints.
		_, _ = w.Write([]byte(`{"data":{"So11111111111111111111111111111111111111112":null}}`))
	}))
	defer srv.Close()

	oracle := NewOracle(srv.URL, 5*time.Second, time.Minute, zap.NewNop())
	_, err := oracle.Price(context.Background(), testToken)
	require.Error(t, err)
	assert.Equal(t, swaperr.KindNotFound, swaperr.KindOf(err))
}

func TestPriceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	oracle := NewOracle(srv.URL, 5*time.Second, time.Minute, zap.NewNop())
	_, err := oracle.Price(context.Background(), testToken)
	require.Error(t, err)
	assert.Equal(t, swaperr.KindNetwork, swaperr.KindOf(err))
}

func TestPriceUnparseable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"So11111111111111111111111111111111111111112":{"id":"x","price":"NaN-ish"}}}`))
	}))
	defer srv.Close()

	oracle := NewOracle(srv.URL, 5*time.Second, time.Minute, zap.NewNop())
	_, err := oracle.Price(context.Background(), testToken)
	require.Error(t, err)
	assert.Equal(t, swaperr.KindDecode, swaperr.KindOf(err))
}
