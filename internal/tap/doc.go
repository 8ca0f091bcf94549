// Package tap connects an external event tap to the decision pipeline.
//
// The tap speaks newline-delimited JSON. Each input line is one keyboard
// event:
//
//	{"keyCode":7,"type":"keyDown","flags":262144,"autorepeat":false,"sourceTag":0,"app":"Terminal"}
//
// and each input line produces exactly one output line, in order:
//
//	{"seq":2,"action":"suppress","synthetic":{"keyCode":8,"keyDown":true,"flags":262144,"sourceTag":1802793009},"rule":"Control+LetterX -> Control+LetterC [Terminal]"}
//
// The optional app field reports a change of foreground application; it
// stays in effect until the next event that carries one. A line with type
// "tapDisabled" tells the session that events may have been lost, which
// clears the held-key state.
//
// A line that cannot be decoded is answered with action "pass" and an
// error field, so the tap never swallows a key because of a protocol
// problem.
package tap
