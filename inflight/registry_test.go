package inflight

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gw2errors "github.com/greaka/gw2lib/errors"
	"github.com/greaka/gw2lib/fingerprint"
)

func testFingerprint() fingerprint.Key {
	return fingerprint.ForStrings[string]("19721", "en", "")
}

func TestRegistry_FirstCallerBecomesProducer(t *testing.T) {
	r := NewRegistry()
	recv, guard := r.Enter(testFingerprint())
	assert.Nil(t, recv)
	require.NotNil(t, guard)
}

func TestRegistry_SecondCallerJoinsAsConsumer(t *testing.T) {
	r := NewRegistry()
	fp := testFingerprint()

	_, guard := r.Enter(fp)
	recv, secondGuard := r.Enter(fp)
	require.NotNil(t, recv)
	assert.Nil(t, secondGuard)

	guard.Publish("value")
	v, err := recv.Recv()
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestRegistry_AbandonSurfacesErrorToConsumers(t *testing.T) {
	r := NewRegistry()
	fp := testFingerprint()

	_, guard := r.Enter(fp)
	recv, _ := r.Enter(fp)

	guard.Abandon()

	_, err := recv.Recv()
	assert.ErrorIs(t, err, gw2errors.ErrInflightReceiveFailed)
}

func TestRegistry_SlotRemovedAfterAllHoldersRelease(t *testing.T) {
	r := NewRegistry()
	fp := testFingerprint()

	recv, guard := r.Enter(fp)
	require.Nil(t, recv)

	r2, _ := r.Enter(fp)
	require.NotNil(t, r2)

	guard.Publish(42)
	v, err := r2.Recv()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	r2.Close()

	assert.Empty(t, r.slots, "slot must be removed once every holder released its reference")
}

func TestRegistry_NewProducerCanClaimFingerprintOnceSlotIsGone(t *testing.T) {
	r := NewRegistry()
	fp := testFingerprint()

	_, guard := r.Enter(fp)
	guard.Publish("first")

	_, second := r.Enter(fp)
	require.NotNil(t, second, "with the first slot's sole holder (the guard) released, a later caller must become a new producer")
}

func TestRegistry_AtMostOneProducerUnderConcurrency(t *testing.T) {
	r := NewRegistry()
	fp := testFingerprint()

	const callers = 50
	var producers int32
	var wg sync.WaitGroup
	var guardMu sync.Mutex
	var guard *Guard
	var receivers []*Receiver
	var recvMu sync.Mutex

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			recv, g := r.Enter(fp)
			if g != nil {
				atomic.AddInt32(&producers, 1)
				guardMu.Lock()
				guard = g
				guardMu.Unlock()
				return
			}
			recvMu.Lock()
			receivers = append(receivers, recv)
			recvMu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), producers, "exactly one of the concurrent callers must win the producer role")
	require.NotNil(t, guard)

	guard.Publish("coalesced")

	for _, recv := range receivers {
		v, err := recv.Recv()
		require.NoError(t, err)
		assert.Equal(t, "coalesced", v)
		recv.Close()
	}
}

func TestRegistry_ConsumerRecvBlocksUntilPublish(t *testing.T) {
	r := NewRegistry()
	fp := testFingerprint()

	_, guard := r.Enter(fp)
	recv, _ := r.Enter(fp)

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := recv.Recv()
		require.NoError(t, err)
		assert.Equal(t, "late", v)
	}()

	select {
	case <-done:
		t.Fatal("Recv returned before Publish was called")
	case <-time.After(20 * time.Millisecond):
	}

	guard.Publish("late")
	<-done
}
