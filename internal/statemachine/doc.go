// Package statemachine derives a resumable state machine from a constructed
// block graph: one state variant per reachable block capturing exactly the
// locals live on entry, and one handler per state that runs the block and
// names the next state.
package statemachine
