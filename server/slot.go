package server

import (
	"context"
	"sync"

	"blackjackviz/figure"
	"blackjackviz/server/fastview"
	"blackjackviz/server/root_view"

	channerics "github.com/niceyeti/channerics/channels"
)

// slot is the record of one figure kind: its latest figure, the pipeline
// turning figures into element updates, and the clients those go to.
type slot struct {
	kind string
	root *root_view.RootView
	hub  *hub
	in   chan figure.Figure

	mu      sync.RWMutex
	current figure.Figure
}

func newSlot(ctx context.Context, first figure.Figure) (*slot, error) {
	figures := make(chan figure.Figure)
	root, err := root_view.NewRootView(ctx, first, figures)
	if err != nil {
		return nil, err
	}

	sl := &slot{
		kind:    first.Kind,
		root:    root,
		hub:     newHub(),
		in:      make(chan figure.Figure),
		current: first,
	}
	go pump(ctx.Done(), sl.in, figures)
	go sl.hub.run(ctx.Done(), root.Updates())
	return sl, nil
}

func (sl *slot) latest() figure.Figure {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.current
}

// push records the figure as the latest and hands it to the pump, which always
// accepts promptly.
func (sl *slot) push(ctx context.Context, fig figure.Figure) error {
	sl.mu.Lock()
	sl.current = fig
	sl.mu.Unlock()

	select {
	case sl.in <- fig:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pump forwards figures from in to out, holding at most one: a figure not yet
// taken by out is replaced by the next to arrive.
func pump(done <-chan struct{}, in <-chan figure.Figure, out chan<- figure.Figure) {
	var pending figure.Figure
	hasPending := false
	for {
		var send chan<- figure.Figure
		if hasPending {
			send = out
		}

		select {
		case <-done:
			return
		case fig := <-in:
			pending, hasPending = fig, true
		case send <- pending:
			hasPending = false
		}
	}
}

// hub copies a stream of element updates to every subscriber. A subscriber
// that falls behind gets its unread updates merged with the newest, so slow
// clients skip intermediate states but never block the others.
type hub struct {
	mu   sync.Mutex
	subs map[chan []fastview.EleUpdate]struct{}
}

func newHub() *hub {
	return &hub{subs: map[chan []fastview.EleUpdate]struct{}{}}
}

func (h *hub) subscribe() (<-chan []fastview.EleUpdate, func()) {
	sub := make(chan []fastview.EleUpdate, 1)
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub, func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	}
}

func (h *hub) run(done <-chan struct{}, updates <-chan []fastview.EleUpdate) {
	for batch := range channerics.OrDone(done, updates) {
		h.mu.Lock()
		for sub := range h.subs {
			offer(sub, batch)
		}
		h.mu.Unlock()
	}
}

// offer puts the batch on a one-slot channel without blocking. Only the hub
// sends on sub, so after draining it the send cannot fail.
func offer(sub chan []fastview.EleUpdate, batch []fastview.EleUpdate) {
	select {
	case sub <- batch:
		return
	default:
	}

	select {
	case unread := <-sub:
		batch = fastview.Merge(unread, batch)
	default:
	}
	sub <- batch
}
