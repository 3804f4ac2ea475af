package build

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"testing"

	daerrors "github.com/tamirms/doublearray/errors"
	"github.com/tamirms/doublearray/internal/units"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// randomKeys returns n sorted, unique keys over alphabet with lengths in
// [1, maxLen].
func randomKeys(rng *rand.Rand, n, maxLen int, alphabet string) [][]byte {
	seen := make(map[string]bool, n)
	keys := make([][]byte, 0, n)
	for len(keys) < n {
		k := make([]byte, 1+rng.IntN(maxLen))
		for i := range k {
			k[i] = alphabet[rng.IntN(len(alphabet))]
		}
		if seen[string(k)] {
			continue
		}
		seen[string(k)] = true
		keys = append(keys, k)
	}
	slices.SortFunc(keys, bytes.Compare)
	return keys
}

// lookup walks key through v and returns its value.
func lookup(v units.View, key []byte) (int, bool) {
	node := 0
	for _, c := range key {
		next, ok := v.Child(node, units.Label(c))
		if !ok {
			return 0, false
		}
		node = next
	}
	return v.Value(node)
}

func checkAll(t *testing.T, v units.View, keys [][]byte, values []int) {
	t.Helper()
	for i, k := range keys {
		want := i
		if values != nil {
			want = values[i]
		}
		got, ok := lookup(v, k)
		if !ok || got != want {
			t.Fatalf("key %d %q: got %d, %v; want %d", i, k, got, ok, want)
		}
	}
	if err := v.CheckRoot(); err != nil {
		t.Fatalf("CheckRoot: %v", err)
	}
	if err := v.Verify(0, v.Len()); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestBuildSmall(t *testing.T) {
	keys := [][]byte{[]byte("AB"), []byte("ABC"), []byte("B")}
	v, stats, err := Build(keys, []int{0, 1, 2}, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	checkAll(t, v, keys, []int{0, 1, 2})
	if _, ok := lookup(v, []byte("A")); ok {
		t.Error("prefix A has a value")
	}
	if stats.Keys != 3 {
		t.Errorf("stats.Keys = %d, want 3", stats.Keys)
	}
	if stats.Units != v.Len() || stats.Owned != v.CountOwned() {
		t.Errorf("stats = %+v, view has %d units, %d owned", stats, v.Len(), v.CountOwned())
	}
}

func TestBuildEmpty(t *testing.T) {
	v, stats, err := Build(nil, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if v.Len() != 1 || stats.Keys != 0 {
		t.Errorf("empty build: %d units, %d keys", v.Len(), stats.Keys)
	}
	if _, ok := lookup(v, nil); ok {
		t.Error("empty dictionary holds the empty key")
	}
}

func TestBuildEmptyAndZeroBytes(t *testing.T) {
	keys := [][]byte{{}, {0}, {0, 0}, {0, 1}, {1}, {0xFF, 0xFF}}
	v, _, err := Build(keys, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	checkAll(t, v, keys, nil)
	if _, ok := lookup(v, []byte{0xFF}); ok {
		t.Error("prefix 0xFF has a value")
	}
}

func TestBuildRandom(t *testing.T) {
	rng := newTestRNG(t)
	keys := randomKeys(rng, 4096, 8, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	values := make([]int, len(keys))
	for i := range values {
		values[i] = rng.IntN(units.MaxValue)
	}

	v, stats, err := Build(keys, values, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	checkAll(t, v, keys, values)
	t.Logf("units=%d owned=%d relocations=%d probes=%d", stats.Units, stats.Owned, stats.Relocations, stats.Probes)
}

func TestBuildBinaryKeys(t *testing.T) {
	rng := newTestRNG(t)
	alphabet := make([]byte, 256)
	for i := range alphabet {
		alphabet[i] = byte(i)
	}
	keys := randomKeys(rng, 2000, 4, string(alphabet))

	v, _, err := Build(keys, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	checkAll(t, v, keys, nil)
}

// TestBuildConstrainedSearch forces the relocation and tail paths by
// limiting how far base search may look.
func TestBuildConstrainedSearch(t *testing.T) {
	rng := newTestRNG(t)
	keys := randomKeys(rng, 3000, 6, "abcdefghijklmnop")

	for _, cfg := range []Config{
		{MaxProbes: 1, MaxEvictions: 2, InitialUnits: 8, MaxUnits: 1 << 20},
		{MaxProbes: 2, MaxEvictions: 8, InitialUnits: 8, MaxUnits: 1 << 20},
		{MaxProbes: 1, MaxEvictions: 0, InitialUnits: 1, MaxUnits: 1 << 20},
	} {
		v, stats, err := Build(keys, nil, cfg)
		if err != nil {
			t.Fatalf("Build(%+v): %v", cfg, err)
		}
		checkAll(t, v, keys, nil)
		if stats.Units > 4*stats.Owned {
			t.Errorf("cfg=%+v: %d units for %d owned", cfg, stats.Units, stats.Owned)
		}
		if cfg.MaxEvictions == 0 && stats.Relocations != 0 {
			t.Errorf("relocations with eviction disabled: %d", stats.Relocations)
		}
		t.Logf("cfg=%+v units=%d relocations=%d moved=%d", cfg, stats.Units, stats.Relocations, stats.MovedUnits)
	}
}

// TestTailPlacementStaysDense builds with a single probe and no eviction,
// so nearly every internal node goes past the highest used slot. The array
// must grow with the number of nodes, not double per placement.
func TestTailPlacementStaysDense(t *testing.T) {
	var keys [][]byte
	for _, a := range "abcde" {
		for _, b := range "abcde" {
			for _, c := range "abcde" {
				keys = append(keys, []byte{byte(a), byte(b), byte(c)})
			}
		}
	}
	keys = keys[:120]

	cfg := Config{MaxProbes: 1, MaxEvictions: 0, InitialUnits: DefaultInitialUnits, MaxUnits: 1 << 16}
	v, stats, err := Build(keys, nil, cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	checkAll(t, v, keys, nil)
	if stats.Units > 2*stats.Owned {
		t.Errorf("%d units for %d owned", stats.Units, stats.Owned)
	}
	if stats.Grows != 0 {
		t.Errorf("grew %d times past %d initial units", stats.Grows, DefaultInitialUnits)
	}
}

// TestTailPlacementSkipsReservedSlots checks that while an eviction holds
// reservations, tail placement starts past the highest reserved slot rather
// than at the highest claimed one.
func TestTailPlacementSkipsReservedSlots(t *testing.T) {
	b := newBuilder(nil, nil, Config{MaxProbes: 1, InitialUnits: 16})
	if err := b.claim(1, units.Leaf(0, 0)); err != nil {
		t.Fatal(err)
	}

	if base, _ := b.findBase([]int{units.EndLabel}, false); base != 2 {
		t.Fatalf("base = %d, want first free slot 2", base)
	}

	// Slot 2 (the only probe) and slot 7 are held by a pending placement.
	b.reserved[2], b.reserved[7] = true, true
	b.reservedEnd = 8
	base, conflicts := b.findBase([]int{units.EndLabel}, false)
	if conflicts != 0 || base != 8 {
		t.Errorf("findBase = %d, %d; want 8, 0", base, conflicts)
	}
}

// TestRelocatePreservesLookups moves the child groups of placed nodes after
// a build and checks that every key still resolves.
func TestRelocatePreservesLookups(t *testing.T) {
	rng := newTestRNG(t)
	keys := randomKeys(rng, 500, 5, "abcdefgh")

	b := newBuilder(keys, nil, DefaultConfig())
	if err := b.run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	internalNodes := func() []int {
		var nodes []int
		for i := range b.array.Len() {
			u := b.array.At(i)
			if !u.IsFree() && !u.IsLeaf() && u.Base() > 0 {
				nodes = append(nodes, i)
			}
		}
		return nodes
	}
	if n := len(internalNodes()); n < 10 {
		t.Fatalf("only %d internal nodes", n)
	}

	// Relocations renumber nodes, so the sample is taken afresh each time.
	// Step 0 picks the root.
	relocations := b.stats.Relocations
	for step := range 4 {
		nodes := internalNodes()
		o := nodes[step*len(nodes)/4]
		before := b.array.At(o).Base()
		if err := b.relocate(o); err != nil {
			t.Fatalf("relocate(%d): %v", o, err)
		}
		if b.array.At(o).Base() == before {
			t.Errorf("node %d kept base %d", o, before)
		}
	}
	if got := b.stats.Relocations - relocations; got != 4 {
		t.Errorf("Relocations grew by %d, want 4", got)
	}

	v := b.array.Encode(b.array.Trim())
	checkAll(t, v, keys, nil)
}

func TestFreeListAfterGrowth(t *testing.T) {
	b := newBuilder(nil, nil, Config{MaxProbes: 4, InitialUnits: 4})
	if err := b.ensure(9); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	// Every free index appears exactly once, in ascending order from head.
	var got []int
	f := b.head
	for {
		got = append(got, f)
		f = b.next[f]
		if f == b.head {
			break
		}
	}
	want := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if b.array.Len() > 10 {
		for i := 10; i < b.array.Len(); i++ {
			want = append(want, i)
		}
	}
	if !slices.Equal(got, want) {
		t.Errorf("free list = %v, want %v", got, want)
	}

	if err := b.claim(5, units.Internal(0, 0)); err != nil {
		t.Fatalf("claim: %v", err)
	}
	b.release(5)
	if b.head != 5 {
		t.Errorf("released slot not at head: head %d", b.head)
	}
}

func TestBuildProgress(t *testing.T) {
	rng := newTestRNG(t)
	keys := randomKeys(rng, 300, 4, "xyz")

	var calls, lastDone, lastTotal int
	cfg := DefaultConfig()
	cfg.Progress = func(done, total int) {
		calls++
		if done <= lastDone {
			t.Errorf("progress went from %d to %d", lastDone, done)
		}
		lastDone, lastTotal = done, total
	}
	if _, _, err := Build(keys, nil, cfg); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if calls != len(keys) || lastDone != len(keys) || lastTotal != len(keys) {
		t.Errorf("calls=%d last=(%d,%d), want %d", calls, lastDone, lastTotal, len(keys))
	}
}

func TestBuildErrors(t *testing.T) {
	k := func(ss ...string) [][]byte {
		out := make([][]byte, len(ss))
		for i, s := range ss {
			out[i] = []byte(s)
		}
		return out
	}

	tests := []struct {
		name   string
		keys   [][]byte
		values []int
		cfg    Config
		want   error
	}{
		{"unsorted", k("b", "a"), nil, DefaultConfig(), daerrors.ErrUnsortedInput},
		{"longer before prefix", k("ab", "a"), nil, DefaultConfig(), daerrors.ErrUnsortedInput},
		{"unsorted deep", k("abc", "abd", "abb"), nil, DefaultConfig(), daerrors.ErrUnsortedInput},
		{"duplicate", k("a", "b", "b"), nil, DefaultConfig(), daerrors.ErrDuplicateKey},
		{"duplicate empty", k("", ""), nil, DefaultConfig(), daerrors.ErrDuplicateKey},
		{"negative value", k("a", "b"), []int{0, -1}, DefaultConfig(), daerrors.ErrNegativeValue},
		{"value overflow", k("a"), []int{units.MaxValue + 1}, DefaultConfig(), daerrors.ErrValueOverflow},
		{"values mismatch", k("a", "b"), []int{1}, DefaultConfig(), daerrors.ErrLengthMismatch},
		{"array limit", k("a", "b", "c", "d", "e", "f"), nil, Config{MaxProbes: 8, InitialUnits: 4, MaxUnits: 4}, daerrors.ErrArrayTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Build(tc.keys, tc.values, tc.cfg)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
