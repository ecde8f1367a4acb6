package fm

import (
	"fmt"
	"math"
)

// Algorithm selects one of the fixed FM routing topologies. The wiring is
// built once at engine construction; the per-sample path only walks
// precomputed routing tables.
type Algorithm int

const (
	// AlgoTwoOpStack: operator 1 modulates operator 0, the single carrier.
	AlgoTwoOpStack Algorithm = iota
	// AlgoFourOpStack: serial stack 3 -> 2 -> 1 -> 0, carrier 0.
	AlgoFourOpStack
	// AlgoTwoParallel: two independent pairs, 1 -> 0 and 3 -> 2, with
	// operators 0 and 2 as parallel carriers.
	AlgoTwoParallel
	// AlgoFourOpFeedback: like the four-operator stack with self-feedback
	// on the topmost modulator.
	AlgoFourOpFeedback
)

func (a Algorithm) valid() bool {
	return a >= AlgoTwoOpStack && a <= AlgoFourOpFeedback
}

func (a Algorithm) String() string {
	switch a {
	case AlgoTwoOpStack:
		return "two-op-stack"
	case AlgoFourOpStack:
		return "four-op-stack"
	case AlgoTwoParallel:
		return "two-parallel"
	case AlgoFourOpFeedback:
		return "four-op-feedback"
	}
	return fmt.Sprintf("algorithm(%d)", int(a))
}

// ParseAlgorithm maps a preset/CLI name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "two-op-stack":
		return AlgoTwoOpStack, nil
	case "four-op-stack":
		return AlgoFourOpStack, nil
	case "two-parallel":
		return AlgoTwoParallel, nil
	case "four-op-feedback":
		return AlgoFourOpFeedback, nil
	}
	return 0, fmt.Errorf("unknown algorithm %q", name)
}

// modIndexScale converts a modulation index in radians to the clock's
// normalized-cycle phase units.
const modIndexScale = 1.0 / (2.0 * math.Pi)

// routing is the fixed wiring derived from an Algorithm. modSources[i]
// lists the operators whose output phase-modulates operator i; operators
// are rendered from the highest index down, so sources always hold a
// larger index than their target.
type routing struct {
	algorithm  Algorithm
	modSources [NumOperators][]int
	feedback   [NumOperators]bool
	carriers   []int
	carrierCut float32 // 1/len(carriers), keeps summed carriers in [-1,1]
}

func newRouting(a Algorithm) routing {
	r := routing{algorithm: a}
	switch a {
	case AlgoTwoOpStack:
		r.modSources[0] = []int{1}
		r.carriers = []int{0}
	case AlgoFourOpStack:
		r.modSources[0] = []int{1}
		r.modSources[1] = []int{2}
		r.modSources[2] = []int{3}
		r.carriers = []int{0}
	case AlgoTwoParallel:
		r.modSources[0] = []int{1}
		r.modSources[2] = []int{3}
		r.carriers = []int{0, 2}
	case AlgoFourOpFeedback:
		r.modSources[0] = []int{1}
		r.modSources[1] = []int{2}
		r.modSources[2] = []int{3}
		r.feedback[3] = true
		r.carriers = []int{0}
	}
	r.carrierCut = 1.0 / float32(len(r.carriers))
	return r
}
