package testkit

import (
	"sync/atomic"
	"testing"
	"time"
)

var retryLimit = 3

func TestAssertions(t *testing.T) {
	MustPanic(t, func() { panic("boom") })
	MustNotPanic(t, func() {})
	MustContain(t, "queue ABC-42 drained", "ABC-42")
}

func TestSwapRestores(t *testing.T) {
	t.Run("swapped", func(t *testing.T) {
		Serial(t)
		Swap(t, &retryLimit, 9)
		if retryLimit != 9 {
			t.Fatalf("swap did not apply: %d", retryLimit)
		}
	})
	if retryLimit != 3 {
		t.Fatalf("swap not restored: %d", retryLimit)
	}
}

func TestEventually(t *testing.T) {
	var done atomic.Bool
	go func() {
		time.Sleep(20 * time.Millisecond)
		done.Store(true)
	}()
	Eventually(t, time.Second, done.Load)
}
