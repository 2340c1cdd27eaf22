package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	snapshotv1 "github.com/riverstonefx/clob-engine/internal/domain/snapshot/v1"
	"github.com/riverstonefx/clob-engine/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedisClient is a hand-written stand-in for redis.Client.
type fakeRedisClient struct {
	data   map[string]string
	getErr error
	setErr error
}

func newFakeRedisClient() *fakeRedisClient {
	return &fakeRedisClient{data: make(map[string]string)}
}

func (f *fakeRedisClient) Connect(ctx context.Context) error    { return nil }
func (f *fakeRedisClient) Disconnect(ctx context.Context) error { return nil }
func (f *fakeRedisClient) Ping(ctx context.Context) error       { return nil }

func (f *fakeRedisClient) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.data[key], nil
}

func (f *fakeRedisClient) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	switch v := value.(type) {
	case string:
		f.data[key] = v
	case []byte:
		f.data[key] = string(v)
	default:
		panic("unsupported value type in fakeRedisClient.Set")
	}
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	log, err := logger.NewLogger()
	require.NoError(t, err)
	return log
}

func TestRedisStore_LoadStoreOnCacheMissReturnsNil(t *testing.T) {
	client := newFakeRedisClient()
	store := NewRedisStore(client, "BTC-USD", testLogger(t))

	snapshot, err := store.LoadStore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestRedisStore_StoreThenLoadRoundTrips(t *testing.T) {
	client := newFakeRedisClient()
	store := NewRedisStore(client, "BTC-USD", testLogger(t))

	want := &snapshotv1.Snapshot{
		OrderOffset: 9,
		OrderBookSnapshot: snapshotv1.OrderBookSnapshot{
			Symbol: "BTC-USD",
			Unit:   1,
			Orders: []snapshotv1.BookOrder{{OrderID: 1, Side: 0, Price: 100, Volume: 2}},
		},
	}

	require.NoError(t, store.Store(context.Background(), want))

	got, err := store.LoadStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, got)
}

func TestRedisStore_StoreKeyedBySymbolDoesNotLeakAcrossSymbols(t *testing.T) {
	client := newFakeRedisClient()
	btc := NewRedisStore(client, "BTC-USD", testLogger(t))
	eth := NewRedisStore(client, "ETH-USD", testLogger(t))

	require.NoError(t, btc.Store(context.Background(), &snapshotv1.Snapshot{OrderOffset: 1}))

	got, err := eth.LoadStore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_LoadStorePropagatesClientError(t *testing.T) {
	client := newFakeRedisClient()
	client.getErr = errors.New("connection reset")
	store := NewRedisStore(client, "BTC-USD", testLogger(t))

	_, err := store.LoadStore(context.Background())
	assert.Error(t, err)
}

func TestRedisStore_StorePropagatesClientError(t *testing.T) {
	client := newFakeRedisClient()
	client.setErr = errors.New("connection reset")
	store := NewRedisStore(client, "BTC-USD", testLogger(t))

	err := store.Store(context.Background(), &snapshotv1.Snapshot{OrderOffset: 1})
	assert.Error(t, err)
}
