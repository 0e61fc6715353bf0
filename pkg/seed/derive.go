package seed

import "hash/fnv"

// Derive produces a sub-seed for a given purpose label, by XORing base
// with a stable FNV-1a hash of label. Every consumer of the base seed
// that needs its own independent draw (section resolution, template
// selection, theme sampling) derives its PRNG source this way, so two
// consumers never accidentally correlate even though both trace back to
// the same base seed (spec §9 open question on PRNG derivation).
func Derive(base uint64, label string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(label))
	return base ^ h.Sum64()
}
