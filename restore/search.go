// Package restore implements the difference-mask and transition-ordered
// bit enumeration search: given a block the repair engine could not
// confidently resolve, it searches the space between the data block and
// its backup counterpart for a reconstruction consistent with either
// digest.
package restore

import (
	"github.com/archivekeep/bitrepair/bitops"
	"github.com/archivekeep/bitrepair/score"
	"github.com/archivekeep/bitrepair/sidecar"
)

// Candidate is one checksum-consistent reconstruction found by SearchBlock.
type Candidate struct {
	Block    []byte
	Digest   []byte
	Distance uint64
}

// SearchBlock reconstructs one block from its data-side value x, its
// backup-side value y, and their respective stored digests c, cb (spec
// §4.7). wRestore bounds the divergent-bit count the transition search
// will attempt; budget bounds the number of checksum computations spent.
func SearchBlock(compute func([]byte) []byte, lc int, penalty uint64, redundancy int, wRestore int, budget uint64, x, y, c, cb []byte) (hits []Candidate, aborted bool) {
	mask, positions := bitops.DiffMask(x, y)
	_ = mask
	D := len(positions)

	if D == 0 {
		cp := compute(x)
		if bitops.HammingDistance(cp, c) < lc || bitops.HammingDistance(cp, cb) < lc {
			hits = append(hits, Candidate{
				Block:    append([]byte(nil), x...),
				Digest:   cp,
				Distance: score.Distance(x, x, cp, c, penalty, redundancy),
			})
		}
		return hits, false
	}

	if D > wRestore {
		cp := compute(y)
		if bytesEqual(cp, c) {
			hits = append(hits, Candidate{
				Block:    append([]byte(nil), y...),
				Digest:   append([]byte(nil), c...),
				Distance: score.Distance(y, x, c, c, penalty, redundancy),
			})
		}
		return hits, false
	}

	var ops uint64
	tryAndScore := func(candidate []byte) bool {
		cp := compute(candidate)
		ops++
		if bitops.HammingDistance(cp, c) < lc || bitops.HammingDistance(cp, cb) < lc {
			hits = append(hits, Candidate{
				Block:    candidate,
				Digest:   cp,
				Distance: score.Distance(candidate, x, cp, c, penalty, redundancy),
			})
		}
		return ops > budget
	}

outer:
	for ns := 0; ns < D; ns++ {
		before := len(hits)
		m0s, m1s := bitops.TransitionEnumerate(D, ns)
		for i := range m0s {
			cand1 := applyTransitionMask(x, positions, m0s[i])
			if tryAndScore(cand1) {
				aborted = true
				break outer
			}
			cand2 := applyTransitionMask(x, positions, m1s[i])
			if tryAndScore(cand2) {
				aborted = true
				break outer
			}
		}
		if len(hits) > before {
			break
		}
	}
	return hits, aborted
}

func applyTransitionMask(x []byte, positions []int, mask uint64) []byte {
	out := make([]byte, len(x))
	copy(out, x)
	for j, pos := range positions {
		if mask&(1<<uint(j)) == 0 {
			continue
		}
		out[pos/8] ^= 1 << uint(pos%8)
	}
	return out
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Classify turns a block's hit set into instruction records, identical in
// shape to the repair engine's classification (spec §4.6/§4.7 share the
// same NOHITS/HIT!/HIT+HIT? scheme).
func Classify(blockIndex uint64, origBlock, cGiven []byte, hits []Candidate) []sidecar.Instruction {
	if len(hits) == 0 {
		return []sidecar.Instruction{{
			Kind:       sidecar.KindNoHits,
			BlockIndex: blockIndex,
			BlockLen:   uint64(len(origBlock)),
			Digest:     cGiven,
			Block:      origBlock,
		}}
	}

	if len(hits) == 1 {
		h := hits[0]
		return []sidecar.Instruction{{
			Kind:       sidecar.KindHitBang,
			BlockIndex: blockIndex,
			BlockLen:   uint64(len(h.Block)),
			Distance:   h.Distance,
			Digest:     h.Digest,
			Block:      h.Block,
		}}
	}

	out := make([]sidecar.Instruction, 0, len(hits)+1)
	var sum uint64
	minIdx := 0
	for i, h := range hits {
		out = append(out, sidecar.Instruction{
			Kind:       sidecar.KindHit,
			BlockIndex: blockIndex,
			BlockLen:   uint64(len(h.Block)),
			Distance:   h.Distance,
			Digest:     h.Digest,
			Block:      h.Block,
		})
		sum += h.Distance
		if h.Distance < hits[minIdx].Distance {
			minIdx = i
		}
	}
	avg := float64(sum) / float64(len(hits))
	best := hits[minIdx]
	amb := score.Ambival(len(hits), float64(best.Distance), avg)
	if amb < 0 {
		amb = -amb
	}
	out = append(out, sidecar.Instruction{
		Kind:       sidecar.KindHitQuery,
		BlockIndex: blockIndex,
		BlockLen:   uint64(len(best.Block)),
		Distance:   best.Distance,
		Ambival:    uint64(amb),
		Digest:     best.Digest,
		Block:      best.Block,
	})
	return out
}
