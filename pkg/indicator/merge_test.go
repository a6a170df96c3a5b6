package indicator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	x11 := queued(Event{Kind: EventExpose}, Event{Kind: EventVisibility})
	hypr := queued(Event{Kind: EventLayout})

	merged := Merge(context.Background(), x11, hypr)

	counts := make(map[EventKind]int)
	for ev := range merged.Events() {
		counts[ev.Kind]++
	}

	assert.Equal(t, map[EventKind]int{
		EventExpose:     1,
		EventVisibility: 1,
		EventLayout:     1,
	}, counts)
}

func TestMerge_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	open := make(chanSource)

	merged := Merge(ctx, open)
	cancel()

	_, ok := <-merged.Events()
	assert.False(t, ok)
}
