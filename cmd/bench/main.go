// Bench is a benchmarking tool for measuring double-array build time, array
// size, persistence and query throughput.
//
// Usage:
//
//	go run ./cmd/bench -keys 1000000 -hash xxh3 -workers 4
//
// Flags:
//
//	-keys       Number of keys to build (default: 1,000,000)
//	-hash       Key generator hash: xxh3 or murmur3 (default: xxh3)
//	-workers    Number of concurrent query goroutines (default: GOMAXPROCS)
//	-probes     Free slots examined per base search (default: 512)
//	-evictions  Child groups relocated per placement, 0 disables (default: 2)
//	-verbose    Log build details with a development logger
package main

import (
	"bytes"
	"flag"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"slices"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tamirms/doublearray"
)

// getMaxRSS returns the maximum resident set size in bytes.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// keyHash returns 128 bits of hash for the i-th key.
type keyHash func(buf []byte) (hi, lo uint64)

func xxh3Hash(buf []byte) (uint64, uint64) {
	h := xxh3.Hash128(buf)
	return h.Hi, h.Lo
}

func murmur3Hash(buf []byte) (uint64, uint64) {
	return murmur3.Sum128WithSeed(buf, 0x1234)
}

// generateKeys derives n unique keys of 4 to 12 letters from a hash of the
// key's ordinal. The 16-letter alphabet keeps prefixes shared.
func generateKeys(n int, hash keyHash) [][]byte {
	seen := make(map[string]struct{}, n)
	keys := make([][]byte, 0, n)
	var buf [8]byte
	for i := uint64(0); len(keys) < n; i++ {
		for j := range buf {
			buf[j] = byte(i >> (8 * j))
		}
		hi, lo := hash(buf[:])
		key := make([]byte, 4+lo%9)
		for j := range key {
			key[j] = 'a' + byte(hi>>(4*j)&0xF)
		}
		if _, ok := seen[string(key)]; ok {
			continue
		}
		seen[string(key)] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

func main() {
	keysFlag := flag.Int("keys", 1_000_000, "number of keys")
	hashFlag := flag.String("hash", "xxh3", "key generator hash: xxh3 or murmur3")
	workersFlag := flag.Int("workers", runtime.GOMAXPROCS(0), "number of concurrent query goroutines")
	probesFlag := flag.Int("probes", 512, "free slots examined per base search")
	evictionsFlag := flag.Int("evictions", 2, "child groups relocated per placement (0 disables)")
	verbose := flag.Bool("verbose", false, "log build details")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (build phase only)")
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Printf("Failed to create logger: %v\n", err)
			return
		}
		defer func() { _ = logger.Sync() }()
		doublearray.SetLogger(logger)
	}

	var hash keyHash
	switch *hashFlag {
	case "xxh3":
		hash = xxh3Hash
	case "murmur3":
		hash = murmur3Hash
	default:
		fmt.Printf("Unknown hash: %s (use 'xxh3' or 'murmur3')\n", *hashFlag)
		return
	}

	numKeys := *keysFlag
	fmt.Println("Generating keys...")
	genStart := time.Now()
	keys := generateKeys(numKeys, hash)
	genDuration := time.Since(genStart)

	fmt.Println("Sorting keys...")
	sortStart := time.Now()
	slices.SortFunc(keys, bytes.Compare)
	sortDuration := time.Since(sortStart)

	values := make([]int, numKeys)
	for i := range values {
		values[i] = mrand.IntN(1 << 31)
	}

	tmpDir, err := os.MkdirTemp("", "bench-")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	arrayPath := filepath.Join(tmpDir, "bench.da")

	runtime.GC()
	baselineRSS := getMaxRSS()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
	}

	fmt.Println("Building dictionary...")
	var dict doublearray.Dictionary
	buildStart := time.Now()
	err = dict.Build(keys,
		doublearray.WithValues(values),
		doublearray.WithMaxProbes(*probesFlag),
		doublearray.WithMaxEvictions(*evictionsFlag),
	)
	buildDuration := time.Since(buildStart)
	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	if err != nil {
		fmt.Printf("Build failed: %v\n", err)
		return
	}
	peakRSSMem := getMaxRSS() - baselineRSS
	stats := dict.LastBuildStats()

	verifyStart := time.Now()
	if err := dict.Verify(); err != nil {
		fmt.Printf("Verify failed: %v\n", err)
		return
	}
	verifyDuration := time.Since(verifyStart)

	saveStart := time.Now()
	if err := dict.Save(arrayPath); err != nil {
		fmt.Printf("Save failed: %v\n", err)
		return
	}
	saveDuration := time.Since(saveStart)

	var opened doublearray.Dictionary
	openStart := time.Now()
	if err := opened.Open(arrayPath); err != nil {
		fmt.Printf("Open failed: %v\n", err)
		return
	}
	openDuration := time.Since(openStart)

	var mapped doublearray.Dictionary
	mapStart := time.Now()
	if err := mapped.Map(arrayPath); err != nil {
		fmt.Printf("Map failed: %v\n", err)
		return
	}
	mapDuration := time.Since(mapStart)
	defer func() { _ = mapped.Close() }()

	if opened.Checksum() != dict.Checksum() || mapped.Checksum() != dict.Checksum() {
		fmt.Println("Checksum mismatch after round trip")
		return
	}

	queryOrder := mrand.Perm(numKeys)

	fmt.Println("Benchmarking queries...")
	workers := max(1, *workersFlag)
	numQueries := 1_000_000
	queryStart := time.Now()
	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			for i := w; i < numQueries; i += workers {
				k := queryOrder[i%numKeys]
				if r := mapped.ExactMatchSearch(keys[k]); r.Value != values[k] {
					return fmt.Errorf("key %q: got %d, want %d", keys[k], r.Value, values[k])
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Printf("Query failed: %v\n", err)
		return
	}
	queryDuration := time.Since(queryStart)
	avgLatency := float64(queryDuration.Nanoseconds()) * float64(workers) / float64(numQueries) / 1000

	prefixStart := time.Now()
	results := make([]doublearray.Result, 16)
	matches := 0
	for i := range numQueries / 10 {
		matches += mapped.CommonPrefixSearch(keys[queryOrder[i%numKeys]], results)
	}
	prefixDuration := time.Since(prefixStart)

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦════════════════╗\n")
	fmt.Printf("║ Hash: %-14s║ Keys: %-9d║\n", *hashFlag, numKeys)
	fmt.Printf("╠═════════════════════╬════════════════╣\n")
	fmt.Printf("║ Units               ║ %-15d║\n", stats.Units)
	fmt.Printf("║ Owned units         ║ %-15d║\n", stats.Owned)
	fmt.Printf("║ Fill rate           ║ %6.2f %%       ║\n", 100*float64(stats.Owned)/float64(stats.Units))
	fmt.Printf("║ Bytes per key       ║ %6.2f         ║\n", float64(dict.TotalSize())/float64(numKeys))
	fmt.Printf("║ Relocations         ║ %-15d║\n", stats.Relocations)
	fmt.Printf("║ Probes              ║ %-15d║\n", stats.Probes)
	fmt.Printf("║ Key gen time        ║ %6.2f sec     ║\n", genDuration.Seconds())
	fmt.Printf("║ Sort time           ║ %6.2f sec     ║\n", sortDuration.Seconds())
	fmt.Printf("║ Build time          ║ %6.2f sec     ║\n", buildDuration.Seconds())
	fmt.Printf("║ Build throughput    ║ %6.2f M/sec   ║\n", float64(numKeys)/buildDuration.Seconds()/1_000_000)
	fmt.Printf("║ Verify time         ║ %6.3f sec     ║\n", verifyDuration.Seconds())
	fmt.Printf("║ Save time           ║ %6.3f sec     ║\n", saveDuration.Seconds())
	fmt.Printf("║ Open time           ║ %6.3f sec     ║\n", openDuration.Seconds())
	fmt.Printf("║ Map time            ║ %6.3f sec     ║\n", mapDuration.Seconds())
	fmt.Printf("║ Exact match latency ║ %6.3f μs      ║\n", avgLatency)
	fmt.Printf("║ Prefix search       ║ %6.3f μs      ║\n", float64(prefixDuration.Nanoseconds())/float64(numQueries/10)/1000)
	fmt.Printf("║ Prefix matches      ║ %-15d║\n", matches)
	fmt.Printf("║ Peak RSS (build)    ║ %6.1f MB      ║\n", float64(peakRSSMem)/1_000_000)
	fmt.Printf("╚═════════════════════╩════════════════╝\n")
}
