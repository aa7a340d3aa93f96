package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), "2026-05-04|FN")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, m.Held("2026-05-04|FN"))
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewKeyedMutex()
	releaseFN, err := m.Acquire(context.Background(), "FN")
	require.NoError(t, err)
	defer releaseFN()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseAN, err := m.Acquire(ctx, "AN")
	require.NoError(t, err)
	releaseAN()
}

func TestKeyedMutexTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewKeyedMutex()
	release, err := m.Acquire(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Acquire(ctx, "k")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, m.Held("k"))

	release()
	release()
	assert.Equal(t, 0, m.Held("k"))
}

type recordingLocker struct {
	name string
	log  *[]string
	err  error
}

func (r recordingLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if r.err != nil {
		return nil, r.err
	}
	*r.log = append(*r.log, "lock "+r.name)
	return func() { *r.log = append(*r.log, "unlock "+r.name) }, nil
}

func TestChainOrder(t *testing.T) {
	var log []string
	chain := Chain{recordingLocker{name: "a", log: &log}, recordingLocker{name: "b", log: &log}}

	release, err := chain.Acquire(context.Background(), "k")
	require.NoError(t, err)
	release()

	assert.Equal(t, []string{"lock a", "lock b", "unlock b", "unlock a"}, log)
}

func TestChainReleasesOnFailure(t *testing.T) {
	var log []string
	chain := Chain{recordingLocker{name: "a", log: &log}, recordingLocker{name: "b", log: &log, err: errors.New("busy")}}

	_, err := chain.Acquire(context.Background(), "k")
	require.Error(t, err)
	assert.Equal(t, []string{"lock a", "unlock a"}, log)
}

func TestRedisLockerUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	locker := NewRedisLocker(client, "hall-matrix:lock:", time.Second, nil)
	_, err := locker.Acquire(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire redis lock hall-matrix:lock:k")
}
