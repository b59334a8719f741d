// Bench measures assetmap generation time, memory use and lookup
// throughput over a synthetic asset tree.
//
// Usage:
//
//	go run ./cmd/bench -assets 20000 -size 4096 -workers 8
//
// Flags:
//
//	-assets      Number of asset files to create (default: 20,000)
//	-size        Mean payload size in bytes (default: 2048)
//	-compressed  Fraction of assets stored as .br files (default: 0.25)
//	-workers     Payload loading goroutines (default: 1)
//	-hash        Key hash: xxh3 or murmur3 (default: xxh3)
//	-dir         Reuse an existing asset tree instead of creating one
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/tamirms/assetmap"
	"github.com/tamirms/assetmap/internal/ptrhash"
	"github.com/tamirms/assetmap/table"
)

var extensions = []string{".html", ".css", ".js", ".svg", ".png", ".json", ".woff2", ".txt"}

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

// memorySampler tracks peak heap and RSS every 10ms. runtime/metrics avoids
// the stop-the-world pause of ReadMemStats.
type memorySampler struct {
	peakAlloc atomic.Uint64
	peakRSS   atomic.Uint64
	done      chan struct{}
}

func startSampler(baselineAlloc, baselineRSS uint64) *memorySampler {
	s := &memorySampler{done: make(chan struct{})}
	s.peakAlloc.Store(baselineAlloc)
	s.peakRSS.Store(baselineRSS)
	go func() {
		samples := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				storeMax(&s.peakAlloc, samples[0].Value.Uint64())
				storeMax(&s.peakRSS, getMaxRSS())
			}
		}
	}()
	return s
}

func (s *memorySampler) stop() {
	close(s.done)
	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	storeMax(&s.peakAlloc, final.Alloc)
	storeMax(&s.peakRSS, getMaxRSS())
}

func storeMax(v *atomic.Uint64, x uint64) {
	for {
		old := v.Load()
		if x <= old || v.CompareAndSwap(old, x) {
			return
		}
	}
}

// createTree writes n synthetic assets under dir and returns their keys.
func createTree(dir string, n, meanSize int, compressed float64, rng *mrand.Rand) ([]string, int64, error) {
	keys := make([]string, n)
	var total int64
	buf := make([]byte, 2*meanSize+1)
	for i := range n {
		key := fmt.Sprintf("d%03d/asset%07d%s", i%512, i, extensions[i%len(extensions)])
		keys[i] = key
		name := key
		if rng.Float64() < compressed {
			name += ".br"
		}
		size := rng.IntN(len(buf))
		for j := range size {
			buf[j] = byte(rng.Uint32())
		}
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, 0, err
		}
		if err := os.WriteFile(path, buf[:size], 0o644); err != nil {
			return nil, 0, err
		}
		total += int64(size)
	}
	return keys, total, nil
}

// memoryTable lays out an in-process table for keys, the same layout the
// generator emits, so lookups can be timed without compiling the output.
func memoryTable(keys []string, h table.HashID) (*table.Table, error) {
	hashed := make([]ptrhash.Key, len(keys))
	for i, k := range keys {
		hashed[i].K0, hashed[i].K1 = table.HashKey(h, k)
	}
	r, err := ptrhash.Build(hashed, 0x1234567890abcdef)
	if err != nil {
		return nil, err
	}
	assets := make([]table.Asset, len(keys))
	for i, k := range keys {
		assets[r.Slots[i]] = table.Asset{Key: k, Data: k, Digest: xxhash.Sum64String(k)}
	}
	return &table.Table{
		Hash:     h,
		Seed:     r.Seed,
		NumSlots: r.NumSlots,
		Pilots:   string(r.Pilots),
		Remap:    r.Remap,
		Assets:   assets,
	}, nil
}

func main() {
	assetsFlag := flag.Int("assets", 20_000, "number of asset files")
	sizeFlag := flag.Int("size", 2048, "mean payload size in bytes")
	compressedFlag := flag.Float64("compressed", 0.25, "fraction of assets stored pre-compressed")
	workersFlag := flag.Int("workers", 1, "payload loading goroutines")
	hashFlag := flag.String("hash", "xxh3", "key hash: xxh3 or murmur3")
	dirFlag := flag.String("dir", "", "existing asset tree (skips tree creation)")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (generation only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file (generation only)")
	flag.Parse()

	hash, ok := table.ParseHash(*hashFlag)
	if !ok {
		fmt.Printf("Unknown hash: %s (use 'xxh3' or 'murmur3')\n", *hashFlag)
		return
	}

	tmpDir, err := os.MkdirTemp("", "assetbench-")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	assetsDir := *dirFlag
	var keys []string
	var payloadBytes int64
	if assetsDir == "" {
		fmt.Println("Creating asset tree...")
		assetsDir = filepath.Join(tmpDir, "assets")
		rng := mrand.New(mrand.NewPCG(1, 2))
		keys, payloadBytes, err = createTree(assetsDir, *assetsFlag, *sizeFlag, *compressedFlag, rng)
		if err != nil {
			fmt.Printf("Failed to create assets: %v\n", err)
			return
		}
	}
	output := filepath.Join(tmpDir, "assets_gen.go")

	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	baselineRSS := getMaxRSS()
	sampler := startSampler(baseline.Alloc, baselineRSS)

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

	fmt.Println("Generating...")
	genStart := time.Now()
	res, err := assetmap.Generate(context.Background(),
		assetmap.Config{Dir: assetsDir, Output: output},
		assetmap.WithWorkers(*workersFlag), assetmap.WithHash(hash))
	genDuration := time.Since(genStart)

	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}
	sampler.stop()
	if err != nil {
		fmt.Printf("Generate failed: %v\n", err)
		return
	}
	peakHeapMem := sampler.peakAlloc.Load() - baseline.Alloc
	peakRSSMem := sampler.peakRSS.Load() - baselineRSS

	info, err := os.Stat(output)
	if err != nil {
		fmt.Printf("Stat output failed: %v\n", err)
		return
	}
	if payloadBytes == 0 {
		payloadBytes = res.Bytes
	}
	if keys == nil {
		entries, err := assetmap.Scan(context.Background(), assetmap.Config{Dir: assetsDir})
		if err != nil {
			fmt.Printf("Scan failed: %v\n", err)
			return
		}
		for _, e := range entries {
			keys = append(keys, e.Key)
		}
	}

	tbl, err := memoryTable(keys, hash)
	if err != nil {
		fmt.Printf("Table layout failed: %v\n", err)
		return
	}
	indexBytes := len(tbl.Pilots) + 4*len(tbl.Remap)

	queryOrder := mrand.Perm(len(keys))
	m := make(map[string]*table.Asset, len(keys))
	for i := range tbl.Assets {
		m[tbl.Assets[i].Key] = &tbl.Assets[i]
	}

	fmt.Println("Benchmarking lookups...")
	const numQueries = 1_000_000
	var sink int
	queryStart := time.Now()
	for i := range numQueries {
		if a, ok := tbl.Lookup(keys[queryOrder[i%len(keys)]]); ok {
			sink += a.Size()
		}
	}
	tableLatency := float64(time.Since(queryStart).Nanoseconds()) / numQueries

	mapStart := time.Now()
	for i := range numQueries {
		if a, ok := m[keys[queryOrder[i%len(keys)]]]; ok {
			sink += a.Size()
		}
	}
	mapLatency := float64(time.Since(mapStart).Nanoseconds()) / numQueries

	missKey := bytes.Repeat([]byte("x"), 24)
	missStart := time.Now()
	for i := range numQueries {
		missKey[i%len(missKey)]++
		if _, ok := tbl.Lookup(string(missKey)); ok {
			sink++
		}
	}
	missLatency := float64(time.Since(missStart).Nanoseconds()) / numQueries
	_ = sink

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦════════════════╗\n")
	fmt.Printf("║ Hash: %-14s║ Workers: %-5d ║\n", hash, *workersFlag)
	fmt.Printf("╠═════════════════════╬════════════════╣\n")
	fmt.Printf("║ Assets              ║ %8d       ║\n", res.Assets)
	fmt.Printf("║   - compressed      ║ %8d       ║\n", res.Compressed)
	fmt.Printf("║ Payload             ║ %8.1f MB    ║\n", float64(payloadBytes)/1_000_000)
	fmt.Printf("║ Generated source    ║ %8.1f MB    ║\n", float64(info.Size())/1_000_000)
	fmt.Printf("║ Index overhead      ║ %6.3f bits/key║\n", float64(indexBytes*8)/float64(len(keys)))
	fmt.Printf("║ Generate time       ║ %6.2f sec     ║\n", genDuration.Seconds())
	fmt.Printf("║ Generate throughput ║ %6.1f MB/sec  ║\n", float64(payloadBytes)/genDuration.Seconds()/1_000_000)
	fmt.Printf("║ Lookup (hit)        ║ %6.1f ns      ║\n", tableLatency)
	fmt.Printf("║ Lookup (miss)       ║ %6.1f ns      ║\n", missLatency)
	fmt.Printf("║ Go map (hit)        ║ %6.1f ns      ║\n", mapLatency)
	fmt.Printf("║ Peak heap memory    ║ %6.1f MB      ║\n", float64(peakHeapMem)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %6.1f MB      ║\n", float64(peakRSSMem)/1_000_000)
	fmt.Printf("╚═════════════════════╩════════════════╝\n")
}
