package cycles

import (
	"fmt"

	"pycycles/internal/errors"
)

// Strategy selects the cycle detection algorithm.
type Strategy string

const (
	// StrategyDFS reports one cycle per back edge found during a single
	// depth-first sweep. Fast, but overlapping cycles may be missed.
	StrategyDFS Strategy = "dfs"
	// StrategyJohnson enumerates every elementary cycle exactly.
	StrategyJohnson Strategy = "johnson"
	// StrategyTarjan reports each strongly connected component with more
	// than one member as a single cycle group.
	StrategyTarjan Strategy = "tarjan"
)

func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyDFS, StrategyJohnson, StrategyTarjan:
		return Strategy(name), nil
	default:
		return "", errors.AddContext(
			errors.New(errors.CodeConfiguration, fmt.Sprintf("unknown strategy %q (want dfs, johnson or tarjan)", name)),
			errors.CtxStrategy, name)
	}
}

func (s Strategy) String() string {
	return string(s)
}
