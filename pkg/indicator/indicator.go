package indicator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var ErrEventsClosed = errors.New("event source closed")

// noGroup is the last-rendered group before the first redraw.
const noGroup = -1

type Indicator struct {
	prevGroup   int
	labelLength int

	layouts LayoutSource
	surface Surface
	events  EventSource

	log *zap.SugaredLogger
}

func New(
	layouts LayoutSource,
	surface Surface,
	events EventSource,
	labelLength int,
	log *zap.SugaredLogger,
) *Indicator {
	return &Indicator{
		prevGroup:   noGroup,
		labelLength: labelLength,
		layouts:     layouts,
		surface:     surface,
		events:      events,
		log:         log,
	}
}

// Run keeps the overlay in sync with the active layout group until ctx is
// cancelled or one of the collaborators fails.
//
// Each iteration queries the group once, drains every queued event without
// blocking and then blocks for exactly one more event. That event opens the
// batch of the next iteration, so an expose received while blocked is never
// lost.
func (ind *Indicator) Run(ctx context.Context) error {
	events := ind.events.Events()

	var batch []Event
	for {
		group, err := ind.layouts.CurrentGroup()
		if err != nil {
			return fmt.Errorf("get current group: %w", err)
		}

		var closed bool
		batch, closed = drain(events, batch)

		if err := ind.handleBatch(group, batch); err != nil {
			return err
		}
		if closed {
			return ErrEventsClosed
		}
		batch = batch[:0]

		ev, err := wait(ctx, events)
		if err != nil {
			return err
		}
		batch = append(batch, ev)
	}
}

// handleBatch redraws once for every event of the batch that either sees a
// group different from the last rendered one or forces a repaint.
func (ind *Indicator) handleBatch(group int, batch []Event) error {
	for _, ev := range batch {
		if err := ind.process(group, ev); err != nil {
			return err
		}
	}
	return nil
}

func (ind *Indicator) process(group int, ev Event) error {
	if ev.Err != nil {
		return fmt.Errorf("%s event: %w", ev.Kind, ev.Err)
	}

	if group == ind.prevGroup && !ev.forcesRedraw() {
		return nil
	}

	ind.log.Debugw("redraw", "group", group, "previous", ind.prevGroup, "event", ev.Kind.String())

	if err := ind.redraw(group); err != nil {
		return fmt.Errorf("redraw group %d: %w", group, err)
	}

	return nil
}

func (ind *Indicator) redraw(group int) error {
	name, err := ind.layouts.GroupName(group)
	if err != nil {
		return fmt.Errorf("get group name: %w", err)
	}

	if err := ind.surface.Draw(FormatLabel(name, ind.labelLength)); err != nil {
		return fmt.Errorf("draw: %w", err)
	}

	ind.prevGroup = group
	return nil
}

// drain appends every event that is already queued to batch. closed is
// true when the channel was closed while draining.
func drain(events <-chan Event, batch []Event) (_ []Event, closed bool) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return batch, true
			}
			batch = append(batch, ev)
		default:
			return batch, false
		}
	}
}

func wait(ctx context.Context, events <-chan Event) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case ev, ok := <-events:
		if !ok {
			return Event{}, ErrEventsClosed
		}
		return ev, nil
	}
}
