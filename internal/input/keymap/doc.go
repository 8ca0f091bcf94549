// Package keymap provides shortcut rules, immutable rule snapshots and the
// matching engine for the interception pipeline.
//
// # Key Concepts
//
// Rule: maps a trigger (combo + direction) to a replacement trigger, optionally
// scoped to a set of foreground applications.
//
// Snapshot: an immutable, ordered list of rules published as a unit.
//
// Store: holds the active snapshot and swaps it atomically on reload.
//
// Engine: finds the first rule in a snapshot that matches an event.
//
// # Rule Precedence
//
// Rules are tried in snapshot order and the first match wins. The engine
// never sorts; application-scoped rules placed before global ones take
// precedence over them.
//
// # Rule Files
//
// Rule files hold named groups of rule records, in JSON, YAML or TOML:
//
//	{
//	  "terminal": {
//	    "applications": ["Terminal"],
//	    "rules": ["Control+LetterX -> Control+LetterC"]
//	  },
//	  "arrows": [
//	    {
//	      "name": "word-up",
//	      "fromKey": {"keyCode": "UpArrow", "pressedKeys": ["Control", "Shift"]},
//	      "toKey": {"keyCode": "UpArrow", "pressedKeys": ["Alt", "Shift"]}
//	    }
//	  ]
//	}
//
// # Usage
//
//	result, err := keymap.NewLoader().LoadDir(dir)
//	if err != nil {
//	    // keep the previous snapshot
//	}
//	store.Publish(result.Snapshot())
//
//	rule, ok := keymap.Engine{}.Match(store.Current(), query)
package keymap
