package pipeline

import (
	"time"

	"github.com/matzehuels/nestview/pkg/cache"
	"github.com/matzehuels/nestview/pkg/oracle"
	"github.com/matzehuels/nestview/pkg/oracle/graphviz"
	"github.com/matzehuels/nestview/pkg/oracle/layered"
)

// NewOracle returns the layout oracle for the named engine.
func NewOracle(engine string) (oracle.Oracle, error) {
	if engine == "" {
		engine = DefaultEngine
	}
	if err := ValidateEngine(engine); err != nil {
		return nil, err
	}
	switch engine {
	case EngineGraphviz:
		return graphviz.New(), nil
	default:
		return layered.New(), nil
	}
}

// NewCachedOracle returns the oracle for engine wrapped in a layout cache.
// A nil cache returns the bare oracle.
func NewCachedOracle(engine string, c cache.Cache, keyer cache.Keyer, ttl time.Duration) (oracle.Oracle, error) {
	o, err := NewOracle(engine)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return o, nil
	}
	if engine == "" {
		engine = DefaultEngine
	}
	return oracle.NewCached(o, engine, c, keyer, ttl), nil
}
