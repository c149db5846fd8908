package plumbing

import "github.com/tychoish/par/opt"

// Engine holds the validated configuration that Bridge and
// BridgeUnindexed use to decide when and where to split. Engines are
// immutable and safe for concurrent use.
type Engine struct {
	conf Conf
}

// NewEngine builds an engine from the default configuration and the
// option providers, which are applied in order.
func NewEngine(opts ...opt.Provider[*Conf]) (*Engine, error) {
	conf := defaultConf()
	if err := opt.Join(opts...).Apply(&conf); err != nil {
		return nil, err
	}
	return &Engine{conf: conf}, nil
}

// DefaultEngine returns an engine with the default configuration.
func DefaultEngine() *Engine { return &Engine{conf: defaultConf()} }

// Conf returns a copy of the engine's configuration.
func (e *Engine) Conf() Conf { return e.conf }

func (e *Engine) orDefault() *Engine {
	if e == nil {
		return DefaultEngine()
	}
	return e
}

// splitter tracks the remaining split budget for one branch of the
// split tree. Copies are handed to each child.
type splitter struct {
	splits int
	minLen int
}

func (e *Engine) splitter() splitter {
	return splitter{splits: e.conf.NumWorkers, minLen: e.conf.MinLen}
}

func (s *splitter) trySplit() bool {
	if s.splits > 0 {
		s.splits /= 2
		return true
	}
	return false
}

func (s *splitter) trySplitLen(length int) bool {
	return length/2 >= s.minLen && s.trySplit()
}
