package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey identifies one reproducible replication.
// Two replications with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical summary rows.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem names ===

// SubsystemInspector returns the stream name for inspector id.
func SubsystemInspector(id string) string {
	return fmt.Sprintf("inspector_%s", id)
}

// SubsystemWorkstation returns the stream name for workstation id.
func SubsystemWorkstation(id string) string {
	return fmt.Sprintf("workstation_%s", id)
}

// === PartitionedRNG ===

// PartitionedRNG hands out one isolated random stream per entity of a replication,
// so adding draws to one entity never shifts the sequence seen by another.
//
// Derivation: streamSeed = key XOR fnv1a64(streamName).
//
// Thread-safety: NOT thread-safe. A replication owns its PartitionedRNG and
// drives it from a single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the deterministically-seeded stream for the named subsystem.
// The same name always returns the same *rand.Rand instance. Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// ReplicationSeeds draws one 32-bit seed per replication from a stream seeded
// with the master seed. The list depends only on (master, n): seed i is the
// same whether 10 or 1000 replications are requested.
func ReplicationSeeds(master uint64, n int) []int64 {
	src := rand.New(rand.NewSource(int64(master)))
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = int64(src.Uint32())
	}
	return seeds
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
