// Package uictl defines read-only controls the UI uses to observe
// hardware state without owning it.
package uictl

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

// Dial is a control that can read some value.
type Dial[N Number] interface {
	Read() N
}

// CappedDial is a Dial with a maximum cap value.
type CappedDial[N Number] interface {
	Dial[N]
	Cap() (num, max N)
}

// Levels is a control that can read multiple recent sample levels.
type Levels[N Number] interface {
	Read() []N
}
