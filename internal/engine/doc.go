// Package engine runs classic sorting algorithms step by step over a shared
// integer sequence so that a driver (terminal, web client, test) can watch
// the array change.
//
// An Engine owns the sequence. Reset replaces it, Run starts one algorithm on
// a goroutine and returns a Handle, and Cancel (or cancelling the context
// passed to Run) stops the run cooperatively. At most one run is active per
// engine.
//
// Every algorithm calls the same checkpoint after each element it touches.
// A checkpoint publishes the highlighted indices and elapsed time, delivers a
// Frame to subscribed observers, suspends briefly and then checks for
// cancellation. Between checkpoints the run holds the engine's write lock, so
// Snapshot always returns a state that some checkpoint published.
//
// A cancelled run leaves the array as a permutation of its input: insertion
// sort moves keys with adjacent swaps, and an interrupted merge writes its
// unconsumed buffer elements back before stopping.
package engine
