package doublearray

import (
	"fmt"

	"go.uber.org/zap"

	daerrors "github.com/tamirms/doublearray/errors"
	"github.com/tamirms/doublearray/internal/build"
)

// Build constructs the dictionary from keys, which must be strictly
// increasing in bytewise order. Unless WithValues is given, key i maps to i.
//
// On failure the previous array, if any, stays attached.
func (d *Dictionary) Build(keys [][]byte, opts ...BuildOption) error {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	keys, err := applyLengths(keys, cfg.lengths)
	if err != nil {
		return err
	}

	view, stats, err := build.Build(keys, cfg.values, cfg.engine())
	if err != nil {
		return fmt.Errorf("build double array: %w", err)
	}

	d.release()
	d.view = view
	d.size = view.Len()
	d.stats = BuildStats(stats)

	Logger().Debug("built double array",
		zap.Int("keys", stats.Keys),
		zap.Int("units", stats.Units),
		zap.Int("owned", stats.Owned),
		zap.Int("relocations", stats.Relocations),
		zap.Int("probes", stats.Probes))
	return nil
}

// applyLengths truncates each key to its explicit length.
func applyLengths(keys [][]byte, lengths []int) ([][]byte, error) {
	if lengths == nil {
		return keys, nil
	}
	if len(lengths) != len(keys) {
		return nil, fmt.Errorf("%w: %d lengths for %d keys", daerrors.ErrLengthMismatch, len(lengths), len(keys))
	}
	out := make([][]byte, len(keys))
	for i, n := range lengths {
		if n < 0 || n > len(keys[i]) {
			return nil, fmt.Errorf("%w: key %d has %d bytes, length %d", daerrors.ErrKeyLength, i, len(keys[i]), n)
		}
		out[i] = keys[i][:n]
	}
	return out, nil
}
