// Package score implements the weighted block+checksum distance function
// and the ambiguity indicator used to classify repair/restore hit sets.
package score

import "github.com/archivekeep/bitrepair/bitops"

// Distance computes the weighted linear distance between two
// (block, checksum) pairs: bitdist(block1, block2) + P*R*bitdist(c1, c2).
// P is the checksum penalty (spec default 1) and R is the redundancy
// factor; weighting checksum differences by the block-to-checksum size
// ratio normalizes the relative probability mass of a flipped checksum bit
// against a flipped block bit of independent physical origin.
func Distance(block1, block2, c1, c2 []byte, penalty uint64, redundancy int) uint64 {
	blockDist := uint64(bitops.HammingDistance(block1, block2))
	checksumDist := uint64(bitops.HammingDistance(c1, c2))
	return blockDist + penalty*uint64(redundancy)*checksumDist
}

// Ambival computes the ambiguity score for n > 1 hits given the minimum
// and average distance among them. Larger ambival means lower confidence
// in the chosen minimum-distance candidate. Callers store it as a
// non-negative value and flag the ambiguous case through the HIT? kind.
func Ambival(n int, minDist, avgDist float64) int64 {
	if avgDist > minDist {
		return int64(round(100 * float64(n) * minDist / (avgDist - minDist)))
	}
	return int64(100 * float64(n) * minDist * 10000)
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int64(f - 0.5))
	}
	return float64(int64(f + 0.5))
}
