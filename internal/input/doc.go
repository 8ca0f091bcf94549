// Package input decides what happens to each keyboard event.
//
// The input package sits between the operating system's event tap and the
// rest of the system. For every raw event it returns a Decision: let the
// event through, or suppress it and post a synthesized replacement.
//
// # Architecture
//
// A Pipeline coordinates several cooperating components:
//
//   - Feedback Guard: recognizes events this process posted itself
//   - Key State: tracks which keys the hardware reports as held
//   - Rule Store: holds the active rule snapshot, replaced atomically on reload
//   - Match Engine: finds the first rule matching an event
//   - Observers: receive every decision after it is made
//
// # Ordering
//
// Process runs strictly in this order: echoes are passed through untouched,
// the held set is computed without the event's own key, the rule snapshot
// is read exactly once, the first matching rule produces a synthetic
// replacement, and finally the key state is updated from the raw event.
// The key state therefore reflects what the hardware did, not what the
// application saw.
//
// # Usage
//
//	store := keymap.NewStore()
//	store.Publish(result.Snapshot())
//
//	p := input.NewPipeline(store, input.WithResolver(frontmost))
//	for ev := range events {
//	    d := p.Process(ev)
//	    if d.Synthetic != nil {
//	        injector.Post(*d.Synthetic)
//	    }
//	}
package input
