package doublearray

import (
	"fmt"

	daerrors "github.com/tamirms/doublearray/errors"
	"github.com/tamirms/doublearray/internal/build"
)

// BuildOption is a functional option for configuring builds.
type BuildOption func(*buildConfig)

type buildConfig struct {
	lengths  []int
	values   []int
	progress func(done, total int)

	maxProbes    int
	maxEvictions int
	initialUnits int
	maxUnits     int // 0 means the format limit
}

func defaultBuildConfig() *buildConfig {
	return &buildConfig{
		maxProbes:    build.DefaultMaxProbes,
		maxEvictions: build.DefaultMaxEvictions,
		initialUnits: build.DefaultInitialUnits,
	}
}

// WithLengths sets explicit key lengths. Key i is keys[i][:lengths[i]].
// Without it every key uses its full length.
func WithLengths(lengths []int) BuildOption {
	return func(c *buildConfig) {
		c.lengths = lengths
	}
}

// WithValues sets the value stored for each key. Values must lie in
// [0, math.MaxInt32]. Without it key i gets the value i.
func WithValues(values []int) BuildOption {
	return func(c *buildConfig) {
		c.values = values
	}
}

// WithProgress registers a callback invoked after each key is placed.
func WithProgress(fn func(done, total int)) BuildOption {
	return func(c *buildConfig) {
		c.progress = fn
	}
}

// WithMaxProbes bounds how many free slots each base search examines
// before falling back to relocation or the array tail.
func WithMaxProbes(n int) BuildOption {
	return func(c *buildConfig) {
		c.maxProbes = n
	}
}

// WithMaxEvictions bounds how many child groups may be relocated to place a
// single node. Zero disables relocation.
func WithMaxEvictions(n int) BuildOption {
	return func(c *buildConfig) {
		c.maxEvictions = n
	}
}

// WithInitialUnits sets the starting array length in units.
func WithInitialUnits(n int) BuildOption {
	return func(c *buildConfig) {
		c.initialUnits = n
	}
}

// WithMaxUnits caps the array length in units. Builds that need more fail
// with ErrArrayTooLarge. Zero means no cap beyond the format limit.
func WithMaxUnits(n int) BuildOption {
	return func(c *buildConfig) {
		c.maxUnits = n
	}
}

func (c *buildConfig) validate() error {
	switch {
	case c.maxProbes < 1:
		return fmt.Errorf("%w: max probes %d", daerrors.ErrInvalidOption, c.maxProbes)
	case c.maxEvictions < 0:
		return fmt.Errorf("%w: max evictions %d", daerrors.ErrInvalidOption, c.maxEvictions)
	case c.initialUnits < 1:
		return fmt.Errorf("%w: initial units %d", daerrors.ErrInvalidOption, c.initialUnits)
	case c.maxUnits < 0:
		return fmt.Errorf("%w: max units %d", daerrors.ErrInvalidOption, c.maxUnits)
	}
	return nil
}

func (c *buildConfig) engine() build.Config {
	return build.Config{
		MaxProbes:    c.maxProbes,
		MaxEvictions: c.maxEvictions,
		InitialUnits: c.initialUnits,
		MaxUnits:     c.maxUnits,
		Progress:     c.progress,
	}
}
