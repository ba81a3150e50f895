// Package fuzztests houses Go fuzz harnesses that push arbitrary program
// documents through the whole pipeline (loader, block-graph construction,
// synthesis, reference VM) to guard against panics and hangs.
package fuzztests
