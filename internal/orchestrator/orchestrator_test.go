package orchestrator

import "testing"

func TestBackoffDelayGrowsExponentiallyAndCaps(t *testing.T) {
	cases := []struct {
		errors int
		want   int64 // seconds
	}{
		{1, 5},
		{2, 10},
		{3, 20},
		{4, 40},
	}
	for _, c := range cases {
		got := backoffDelay(c.errors)
		if got.Seconds() != float64(c.want) {
			t.Fatalf("backoffDelay(%d) = %v, want %ds", c.errors, got, c.want)
		}
	}

	if got := backoffDelay(20); got > backoffMax {
		t.Fatalf("backoffDelay should cap at %v, got %v", backoffMax, got)
	}
}

func TestAnySubscriberWantsTokenTransfers(t *testing.T) {
	if anySubscriberWantsTokenTransfers(nil) {
		t.Fatal("empty subscriber list should not want token transfers")
	}
}
