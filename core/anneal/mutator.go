package anneal

import (
	"math/rand"

	"github.com/kilianp07/makespan/core/model"
)

// MoveKind is an elementary neighbourhood move.
type MoveKind int

const (
	// MoveReassign sends one job to another processor.
	MoveReassign MoveKind = iota
	// MoveSwap exchanges the processors of two jobs placed on different processors.
	MoveSwap
	// MoveBlock sends a run of consecutive job indices to one processor.
	MoveBlock

	maxMoveKinds = 3
)

func (k MoveKind) String() string {
	switch k {
	case MoveReassign:
		return "reassign"
	case MoveSwap:
		return "swap"
	case MoveBlock:
		return "block"
	default:
		return "unknown"
	}
}

// DefaultMaxBlock bounds the length of a block move.
const DefaultMaxBlock = 4

// Neighborhood proposes a neighbour of a Solution without modifying it.
type Neighborhood interface {
	Mutate(s *model.Solution) (*model.Solution, error)
}

// Mutator generates random neighbours using the first moveKinds move kinds:
// 1 = reassign, 2 = reassign+swap, 3 = reassign+swap+block.
type Mutator struct {
	kinds    int
	maxBlock int
	rng      *rand.Rand
	counts   [maxMoveKinds]int
}

// MutatorOption customises a Mutator.
type MutatorOption func(*Mutator)

// WithMaxBlock sets the longest block a block move may shift.
func WithMaxBlock(n int) MutatorOption {
	return func(m *Mutator) {
		if n > 0 {
			m.maxBlock = n
		}
	}
}

// NewMutator returns a Mutator drawing all randomness from rng.
func NewMutator(moveKinds int, rng *rand.Rand, opts ...MutatorOption) (*Mutator, error) {
	if moveKinds < 1 || moveKinds > maxMoveKinds {
		return nil, model.NewConfigError("move_kinds", "must lie in [1,%d] (got %d)", maxMoveKinds, moveKinds)
	}
	if rng == nil {
		return nil, model.NewConfigError("rng", "random source not initialised (nil)")
	}
	m := &Mutator{kinds: moveKinds, maxBlock: DefaultMaxBlock, rng: rng}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Mutate clones s, applies one random move to the clone and returns it. The
// result differs structurally from s unless there is a single processor.
func (m *Mutator) Mutate(s *model.Solution) (*model.Solution, error) {
	c := s.Clone()
	p := s.Problem()
	if p.Processors() == 1 {
		return c, nil
	}
	kind := MoveKind(m.rng.Intn(m.kinds))
	var err error
	switch kind {
	case MoveSwap:
		var ok bool
		ok, err = m.swap(c)
		if err == nil && !ok {
			kind = MoveReassign
			err = m.reassign(c)
		}
	case MoveBlock:
		err = m.block(c)
	default:
		err = m.reassign(c)
	}
	if err != nil {
		return nil, err
	}
	m.counts[kind]++
	return c, nil
}

// Counts reports how many moves of each kind were applied.
func (m *Mutator) Counts() map[MoveKind]int {
	out := make(map[MoveKind]int, m.kinds)
	for k := 0; k < m.kinds; k++ {
		out[MoveKind(k)] = m.counts[k]
	}
	return out
}

// otherProcessor draws uniformly among processors different from current.
func (m *Mutator) otherProcessor(current, processors int) int {
	t := m.rng.Intn(processors - 1)
	if t >= current {
		t++
	}
	return t
}

func (m *Mutator) reassign(s *model.Solution) error {
	p := s.Problem()
	job := m.rng.Intn(p.NumJobs())
	return s.ApplyMove(job, m.otherProcessor(s.Processor(job), p.Processors()))
}

// swap exchanges a random job with a random job on another processor. It
// reports false when every job shares one processor.
func (m *Mutator) swap(s *model.Solution) (bool, error) {
	n := s.Problem().NumJobs()
	a := m.rng.Intn(n)
	pa := s.Processor(a)
	others := n - len(s.Jobs(pa))
	if others == 0 {
		return false, nil
	}
	k := m.rng.Intn(others)
	for b := 0; b < n; b++ {
		if s.Processor(b) == pa {
			continue
		}
		if k == 0 {
			return true, s.Swap(a, b)
		}
		k--
	}
	return false, nil
}

// block moves jobs [start, start+length) to a processor other than the one
// running job start, so at least that job changes place.
func (m *Mutator) block(s *model.Solution) error {
	p := s.Problem()
	n := p.NumJobs()
	start := m.rng.Intn(n)
	limit := n - start
	if limit > m.maxBlock {
		limit = m.maxBlock
	}
	length := 1 + m.rng.Intn(limit)
	target := m.otherProcessor(s.Processor(start), p.Processors())
	for j := start; j < start+length; j++ {
		if err := s.ApplyMove(j, target); err != nil {
			return err
		}
	}
	return nil
}
