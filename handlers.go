package cadence

import "slices"

type eventHandler struct {
	id uint32
	fn func(Event)
}

// handlerRegistry holds registry-level subscribers per event type.
type handlerRegistry struct {
	byType [numEventTypes][]eventHandler
	nextID uint32
}

// CallbackHandle allows removing a registered registry-level callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires. Safe to call from
// inside the callback itself, and more than once.
func (h CallbackHandle) Remove() {
	if h.reg == nil || h.event >= numEventTypes {
		return
	}
	hs := h.reg.byType[h.event]
	i := slices.IndexFunc(hs, func(e eventHandler) bool { return e.id == h.id })
	if i < 0 {
		return
	}
	// Fresh slice so an emit loop holding the old one is not disturbed.
	h.reg.byType[h.event] = slices.Delete(slices.Clone(hs), i, i+1)
}

func (r *handlerRegistry) add(t EventType, fn func(Event)) CallbackHandle {
	if fn == nil {
		panic("cadence: nil event callback")
	}
	r.nextID++
	r.byType[t] = append(r.byType[t], eventHandler{id: r.nextID, fn: fn})
	return CallbackHandle{id: r.nextID, reg: r, event: t}
}

func (r *handlerRegistry) emit(ev Event) {
	for _, h := range r.byType[ev.Type] {
		h.fn(ev)
	}
}

func (r *handlerRegistry) count(t EventType) int {
	return len(r.byType[t])
}
