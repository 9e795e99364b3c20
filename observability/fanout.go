package observability

import "context"

type discard struct{}

func (discard) OnEvent(context.Context, Event) {}

// Discard drops every event.
var Discard Observer = discard{}

type fanout []Observer

func (f fanout) OnEvent(ctx context.Context, event Event) {
	for _, obs := range f {
		obs.OnEvent(ctx, event)
	}
}

// Multi combines observers into one that delivers each event to all of them
// in order. Nil and discarding observers are dropped and nested combinations
// are flattened, so Multi(log) is log itself and Multi() is Discard.
func Multi(observers ...Observer) Observer {
	var f fanout
	for _, obs := range observers {
		switch o := obs.(type) {
		case nil, discard:
		case fanout:
			f = append(f, o...)
		default:
			f = append(f, o)
		}
	}
	switch len(f) {
	case 0:
		return Discard
	case 1:
		return f[0]
	}
	return f
}
