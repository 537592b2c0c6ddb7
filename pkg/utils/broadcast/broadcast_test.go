package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastDeliversToAllSubscribers(t *testing.T) {
	source := make(chan int)
	srv := NewBroadcastServer("test", "ticks", source)
	defer srv.Close()

	sub1 := srv.Subscribe()
	sub2 := srv.Subscribe()

	go func() { source <- 42 }()

	assert.Equal(t, 42, <-sub1)
	assert.Equal(t, 42, <-sub2)
}

func TestBroadcastSkipsSlowSubscriber(t *testing.T) {
	source := make(chan int)
	srv := NewBroadcastServer("test", "ticks", source,
		WithSendTimeout[int](10*time.Millisecond))
	defer srv.Close()

	_ = srv.Subscribe() // never reads
	fast := srv.Subscribe()

	go func() {
		source <- 1
		source <- 2
	}()

	assert.Equal(t, 1, <-fast)
	assert.Equal(t, 2, <-fast)
}

func TestCancelSubscriptionClosesChannel(t *testing.T) {
	source := make(chan int)
	srv := NewBroadcastServer("test", "ticks", source)
	defer srv.Close()

	sub := srv.Subscribe()
	srv.CancelSubscription(sub)

	select {
	case _, open := <-sub:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscription channel not closed")
	}
}
