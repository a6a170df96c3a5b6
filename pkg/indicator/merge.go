package indicator

import (
	"context"
	"sync"
)

type mergedSource struct {
	ch chan Event
}

func (m *mergedSource) Events() <-chan Event {
	return m.ch
}

// Merge fans the events of all sources into one. The merged channel is
// closed once every source channel has been closed or ctx is done.
func Merge(ctx context.Context, sources ...EventSource) EventSource {
	out := &mergedSource{ch: make(chan Event, len(sources))}

	var wg sync.WaitGroup
	wg.Add(len(sources))
	for _, src := range sources {
		go func(events <-chan Event) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-events:
					if !ok {
						return
					}
					select {
					case out.ch <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}(src.Events())
	}

	go func() {
		wg.Wait()
		close(out.ch)
	}()

	return out
}
