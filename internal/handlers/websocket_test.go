package handlers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrySendAfterCloseIsSafe(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}

	c.closeSend()
	require.True(t, c.trySend([]byte("late")), "closed client swallows the message")

	// Closing again must not close the channel twice.
	c.closeSend()
}

func TestTrySendReportsFullBuffer(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}

	require.True(t, c.trySend([]byte("first")))
	require.False(t, c.trySend([]byte("second")), "full buffer reported to the caller")
}

func TestConcurrentSendAndCloseDoesNotPanic(t *testing.T) {
	// Timer callbacks deliver from their own goroutines while the hub
	// loop replaces the connection; neither side may panic.
	for i := 0; i < 200; i++ {
		c := &Client{send: make(chan []byte, 4)}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 16; j++ {
				c.trySend([]byte("tick"))
			}
		}()
		go func() {
			defer wg.Done()
			c.closeSend()
		}()
		wg.Wait()
	}
}
