package build

import "github.com/tamirms/doublearray/internal/units"

// The free list is a circular doubly linked list threaded through next/prev
// over every unowned index. Slots added by growth are linked at the tail,
// slots released by relocation at the head, so base search probes recently
// vacated holes before the fresh end of the array.

// ensure grows the array so that index i exists and links the new slots
// into the free list.
func (b *builder) ensure(i int) error {
	old, err := b.array.Ensure(i)
	if err != nil {
		return err
	}
	n := b.array.Len()
	if n == old {
		return nil
	}
	b.next = append(b.next, make([]int, n-old)...)
	b.prev = append(b.prev, make([]int, n-old)...)
	b.reserved = append(b.reserved, make([]bool, n-old)...)
	for j := old; j < n; j++ {
		b.item = append(b.item, -1)
		b.link(j, false)
	}
	b.stats.Grows++
	return nil
}

// link inserts free index i at the head or the tail of the list.
func (b *builder) link(i int, atHead bool) {
	if b.head < 0 {
		b.next[i], b.prev[i] = i, i
		b.head = i
		return
	}
	tail := b.prev[b.head]
	b.next[i], b.prev[i] = b.head, tail
	b.next[tail] = i
	b.prev[b.head] = i
	if atHead {
		b.head = i
	}
}

// unlink removes index i from the list.
func (b *builder) unlink(i int) {
	if b.next[i] == i {
		b.head = -1
		return
	}
	b.next[b.prev[i]] = b.next[i]
	b.prev[b.next[i]] = b.prev[i]
	if b.head == i {
		b.head = b.next[i]
	}
}

// claim takes free slot i for u, growing the array if needed.
func (b *builder) claim(i int, u units.Unit) error {
	if err := b.ensure(i); err != nil {
		return err
	}
	assert(b.array.At(i).IsFree(), "claim of owned slot")
	b.unlink(i)
	b.array.Set(i, u)
	b.used = max(b.used, i+1)
	return nil
}

// release returns slot i to the free list.
func (b *builder) release(i int) {
	b.array.Free(i)
	b.item[i] = -1
	b.link(i, true)
}

// slotState classifies index i for a candidate base.
func (b *builder) slotState(i int) (free, reserved bool) {
	if i >= b.array.Len() {
		return true, false
	}
	return b.array.At(i).IsFree(), b.reserved[i]
}

// findBase looks for a base at which every label lands on a free,
// unreserved slot. At most cfg.MaxProbes free slots are tried as anchors for
// the first label. When evict is set and nothing fits, the probed base with
// the fewest owned slots is returned together with that count, provided the
// count is within cfg.MaxEvictions. Otherwise the group goes right after the
// highest claimed or reserved slot, where every slot is free.
func (b *builder) findBase(labels []int, evict bool) (base, conflicts int) {
	first := labels[0]
	bestBase, bestConflicts := -1, 0
	if b.head >= 0 {
		f := b.head
		for range b.cfg.MaxProbes {
			b.stats.Probes++
			if cand := f - first; cand >= 1 {
				if c, ok := b.countConflicts(cand, labels); ok {
					if c == 0 {
						return cand, 0
					}
					if bestBase < 0 || c < bestConflicts {
						bestBase, bestConflicts = cand, c
					}
				}
			}
			f = b.next[f]
			if f == b.head {
				break
			}
		}
	}
	if evict && bestBase >= 0 && bestConflicts <= b.cfg.MaxEvictions {
		return bestBase, bestConflicts
	}
	return max(1, max(b.used, b.reservedEnd)-first), 0
}

// countConflicts counts owned slots under base+labels. ok is false when a
// slot is reserved, which rules the base out entirely.
func (b *builder) countConflicts(base int, labels []int) (n int, ok bool) {
	for _, l := range labels {
		free, reserved := b.slotState(base + l)
		if reserved {
			return 0, false
		}
		if !free {
			n++
		}
	}
	return n, true
}
