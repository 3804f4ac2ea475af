package doublearray

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	daerrors "github.com/tamirms/doublearray/errors"
)

// minVerifyChunk is the smallest number of units checked by one goroutine.
const minVerifyChunk = 1 << 14

// Verify checks the structure of every unit in the array. It reports
// ErrCorruptedArray for the first inconsistency found and ErrNoArray when
// nothing is attached.
func (d *Dictionary) Verify() error {
	v := d.view
	if len(v) == 0 {
		return daerrors.ErrNoArray
	}
	if err := v.CheckRoot(); err != nil {
		return err
	}

	n := v.Len()
	workers := max(1, min(runtime.GOMAXPROCS(0), n/minVerifyChunk))
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			return v.Verify(lo, hi)
		})
	}
	return g.Wait()
}
