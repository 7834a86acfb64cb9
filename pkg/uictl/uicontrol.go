// Package uictl defines the read-only controls TUI components poll for live
// values.
package uictl

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

// Levels is a control that can read a window of recent values.
type Levels[N Number] interface {
	Read() []N
}

// LevelsFunc adapts a function to Levels.
type LevelsFunc[N Number] func() []N

// Read calls f.
func (f LevelsFunc[N]) Read() []N {
	return f()
}
