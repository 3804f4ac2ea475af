// Package build constructs double-array tries from sorted key sets.
//
// Construction works on an explicit stack of key ranges rather than native
// recursion. Each popped range is partitioned by the byte at its depth, a base
// is found for the resulting child labels through a free-slot list, and the
// children are claimed and pushed. When the bounded base search finds no
// clean fit, slots owned by already placed nodes are reclaimed by moving
// their owners' whole child groups elsewhere (see relocate.go).
package build

import (
	"fmt"

	daerrors "github.com/tamirms/doublearray/errors"
	"github.com/tamirms/doublearray/internal/units"
)

const (
	// DefaultMaxProbes bounds the number of free slots tried per base search.
	DefaultMaxProbes = 512

	// DefaultMaxEvictions is the most child groups moved to place one node.
	DefaultMaxEvictions = 2

	// DefaultInitialUnits is the starting array length.
	DefaultInitialUnits = 1024
)

// Config controls construction. Zero fields take their defaults, except
// MaxEvictions where zero disables relocation.
type Config struct {
	MaxProbes    int
	MaxEvictions int
	InitialUnits int
	MaxUnits     int
	Progress     func(done, total int)
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		MaxProbes:    DefaultMaxProbes,
		MaxEvictions: DefaultMaxEvictions,
		InitialUnits: DefaultInitialUnits,
	}
}

// Stats describes one finished build.
type Stats struct {
	Keys        int // keys placed
	Units       int // array length after trimming
	Owned       int // units owned by a node
	Relocations int // child groups moved to resolve conflicts
	MovedUnits  int // units moved by relocations
	Probes      int // free slots examined by base search
	Grows       int // array growth steps
}

// span is a half-open range of key indices.
type span struct {
	begin, end int
}

// workItem is a pending node: keys[begin:end] share a prefix of length depth
// and hang below node.
type workItem struct {
	keys  span
	depth int
	node  int
}

type builder struct {
	cfg    Config
	keys   [][]byte
	values []int
	array  *units.Array

	// Free list and per-slot bookkeeping, parallel to array.
	next     []int
	prev     []int
	head     int
	reserved []bool
	item     []int // index into work for pending nodes, -1 otherwise

	// used is one past the highest slot ever claimed; every slot at or
	// beyond it is free. reservedEnd is one past the highest reserved slot
	// while an eviction runs, 0 otherwise.
	used        int
	reservedEnd int

	work   []workItem
	labels []int  // child labels of the node being placed
	bounds []span // key range of each child label
	moved  []int  // scratch for relocate

	placed int
	stats  Stats
}

// Build constructs the double array for keys with the given values.
// keys must be strictly increasing bytewise; violations are reported as
// ErrUnsortedInput or ErrDuplicateKey. A nil values slice assigns each key
// its ordinal position.
func Build(keys [][]byte, values []int, cfg Config) (units.View, Stats, error) {
	if values != nil && len(values) != len(keys) {
		return nil, Stats{}, fmt.Errorf("%w: %d values for %d keys", daerrors.ErrLengthMismatch, len(values), len(keys))
	}
	if values == nil && len(keys) > units.MaxValue+1 {
		return nil, Stats{}, fmt.Errorf("%w: %d keys", daerrors.ErrValueOverflow, len(keys))
	}
	for i, v := range values {
		if v < 0 {
			return nil, Stats{}, fmt.Errorf("%w: key %d: %d", daerrors.ErrNegativeValue, i, v)
		}
		if v > units.MaxValue {
			return nil, Stats{}, fmt.Errorf("%w: key %d: %d", daerrors.ErrValueOverflow, i, v)
		}
	}
	if cfg.MaxProbes <= 0 {
		cfg.MaxProbes = DefaultMaxProbes
	}
	if cfg.InitialUnits <= 0 {
		cfg.InitialUnits = DefaultInitialUnits
	}

	b := newBuilder(keys, values, cfg)
	if err := b.run(); err != nil {
		return nil, Stats{}, err
	}
	n := b.array.Trim()
	view := b.array.Encode(n)
	b.stats.Keys = b.placed
	b.stats.Units = n
	b.stats.Owned = view.CountOwned()
	return view, b.stats, nil
}

func newBuilder(keys [][]byte, values []int, cfg Config) *builder {
	array := units.NewArray(cfg.InitialUnits, cfg.MaxUnits)
	n := array.Len()
	b := &builder{
		cfg:      cfg,
		keys:     keys,
		values:   values,
		array:    array,
		next:     make([]int, n),
		prev:     make([]int, n),
		head:     -1,
		reserved: make([]bool, n),
		item:     make([]int, n),
		used:     1,
	}
	array.Set(0, units.Internal(0, 0))
	b.item[0] = -1
	for i := 1; i < n; i++ {
		b.item[i] = -1
		b.link(i, false)
	}
	return b
}

func (b *builder) run() error {
	b.work = append(b.work, workItem{keys: span{0, len(b.keys)}, depth: 0, node: 0})
	b.item[0] = 0
	for len(b.work) > 0 {
		k := len(b.work) - 1
		if err := b.partition(b.work[k]); err != nil {
			return err
		}
		if err := b.place(k); err != nil {
			return err
		}
	}
	return nil
}

// partition fills b.labels and b.bounds with the children of w in label
// order. The end-of-key child, if any, comes first.
func (b *builder) partition(w workItem) error {
	b.labels = b.labels[:0]
	b.bounds = b.bounds[:0]
	i := w.keys.begin
	if i < w.keys.end && len(b.keys[i]) == w.depth {
		b.labels = append(b.labels, units.EndLabel)
		b.bounds = append(b.bounds, span{i, i + 1})
		i++
	}
	for ; i < w.keys.end; i++ {
		key := b.keys[i]
		if len(key) == w.depth {
			if i > w.keys.begin && len(b.keys[i-1]) == w.depth {
				return fmt.Errorf("%w: keys %d and %d", daerrors.ErrDuplicateKey, i-1, i)
			}
			return fmt.Errorf("%w: key %d", daerrors.ErrUnsortedInput, i)
		}
		l := units.Label(key[w.depth])
		n := len(b.labels)
		switch {
		case n > 0 && l == b.labels[n-1]:
			b.bounds[n-1].end = i + 1
		case n > 0 && l < b.labels[n-1]:
			return fmt.Errorf("%w: key %d", daerrors.ErrUnsortedInput, i)
		default:
			b.labels = append(b.labels, l)
			b.bounds = append(b.bounds, span{i, i + 1})
		}
	}
	return nil
}

// place assigns a base to the node of work item k, claims its child slots
// and replaces the item with the items of its internal children.
func (b *builder) place(k int) error {
	if len(b.labels) == 0 {
		// Only the root of an empty key set has no children.
		b.item[b.work[k].node] = -1
		b.work = b.work[:k]
		return nil
	}
	last := b.labels[len(b.labels)-1]
	base, conflicts := b.findBase(b.labels, b.cfg.MaxEvictions > 0)
	if err := b.ensure(base + last); err != nil {
		return err
	}
	if conflicts > 0 {
		if err := b.evict(base); err != nil {
			return err
		}
	}

	// Evictions may have moved the node itself.
	w := b.work[k]
	b.work = b.work[:k]
	b.item[w.node] = -1
	b.array.Set(w.node, b.array.At(w.node).WithBase(base))

	for i := len(b.labels) - 1; i >= 0; i-- {
		t := base + b.labels[i]
		r := b.bounds[i]
		if b.labels[i] == units.EndLabel {
			if err := b.claim(t, units.Leaf(w.node, b.value(r.begin))); err != nil {
				return err
			}
			b.placed++
			if b.cfg.Progress != nil {
				b.cfg.Progress(b.placed, len(b.keys))
			}
			continue
		}
		if err := b.claim(t, units.Internal(w.node, 0)); err != nil {
			return err
		}
		b.item[t] = len(b.work)
		b.work = append(b.work, workItem{keys: r, depth: w.depth + 1, node: t})
	}
	return nil
}

func (b *builder) value(i int) int {
	if b.values == nil {
		return i
	}
	return b.values[i]
}

func assert(condition bool, msg string) {
	if !condition {
		panic("build: " + msg)
	}
}
