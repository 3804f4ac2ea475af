package build

import "github.com/tamirms/doublearray/internal/units"

// evict frees the slots under base+b.labels that are owned by other nodes.
// The slots the current node needs are reserved first so that the moved
// groups cannot land on them. Precondition: every target index exists.
func (b *builder) evict(base int) error {
	for _, l := range b.labels {
		b.reserved[base+l] = true
	}
	b.reservedEnd = base + b.labels[len(b.labels)-1] + 1
	defer func() {
		for _, l := range b.labels {
			b.reserved[base+l] = false
		}
		b.reservedEnd = 0
	}()
	for _, l := range b.labels {
		t := base + l
		u := b.array.At(t)
		if u.IsFree() {
			continue // vacated by an earlier relocation of the same owner
		}
		if err := b.relocate(u.Check()); err != nil {
			return err
		}
	}
	return nil
}

// relocate moves the whole child group of node o to a new base. Every moved
// child keeps its unit; children of moved internal nodes are repointed to
// the new index, and pending work items follow their nodes. The new base is
// found without eviction, so relocations never cascade.
func (b *builder) relocate(o int) error {
	oldBase := b.array.At(o).Base()
	b.moved = b.childLabels(o, oldBase, b.moved[:0])
	newBase, _ := b.findBase(b.moved, false)
	if err := b.ensure(newBase + b.moved[len(b.moved)-1]); err != nil {
		return err
	}
	for _, l := range b.moved {
		from, to := oldBase+l, newBase+l
		u := b.array.At(from)
		if err := b.claim(to, u); err != nil {
			return err
		}
		if it := b.item[from]; it >= 0 {
			b.work[it].node = to
			b.item[to] = it
			b.item[from] = -1
		}
		if !u.IsLeaf() && u.Base() > 0 {
			b.repoint(from, to, u.Base())
		}
	}
	b.array.Set(o, b.array.At(o).WithBase(newBase))
	for _, l := range b.moved {
		b.release(oldBase + l)
	}
	b.stats.Relocations++
	b.stats.MovedUnits += len(b.moved)
	return nil
}

// childLabels appends the labels of o's children to dst in increasing order.
func (b *builder) childLabels(o, base int, dst []int) []int {
	for l := units.EndLabel; l <= units.MaxLabel; l++ {
		t := base + l
		if t >= b.array.Len() {
			break
		}
		if t > 0 && b.array.At(t).Check() == o {
			dst = append(dst, l)
		}
	}
	return dst
}

// repoint rewrites the check of every child of the node that moved from
// index from to index to. base is the moved node's base.
func (b *builder) repoint(from, to, base int) {
	for l := units.EndLabel; l <= units.MaxLabel; l++ {
		t := base + l
		if t >= b.array.Len() {
			break
		}
		if u := b.array.At(t); u.Check() == from {
			b.array.Set(t, u.WithCheck(to))
		}
	}
}
