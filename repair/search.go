// Package repair implements the progressive dithered bit-flip search: given
// a corrupt block and its corrupt stored checksum, it searches for nearby
// bit patterns whose checksum is checksum-distance-close to the given one,
// and classifies the resulting hit set into instruction records.
package repair

import (
	"github.com/archivekeep/bitrepair/bitops"
	"github.com/archivekeep/bitrepair/calibrate"
	"github.com/archivekeep/bitrepair/checksum"
	"github.com/archivekeep/bitrepair/score"
	"github.com/archivekeep/bitrepair/sidecar"
)

// Candidate is one checksum-consistent repair found by SearchBlock.
type Candidate struct {
	Block    []byte
	Digest   []byte
	Distance uint64
}

// SearchBlock performs the progressive dithered search for one corrupt
// block x against its corrupt stored digest cGiven (spec §4.6). For each
// frame width n from 0 up to widths.WRepair, it tries every frame of that
// width at every slide position, stopping at the first width that yields
// any hit (smaller perturbations dominate) or once the search has spent
// more than budget checksum computations. aborted reports whether the
// budget, not a clean round, ended the search.
func SearchBlock(method checksum.Method, penalty uint64, redundancy int, widths calibrate.Widths, budget uint64, x, cGiven []byte) (hits []Candidate, aborted bool) {
	blockBits := len(x) * 8
	var ops uint64

	tryAndScore := func(xp []byte) bool {
		cp := method.Compute(xp)
		ops++
		if bitops.HammingDistance(cp, cGiven) <= widths.Lc {
			hits = append(hits, Candidate{
				Block:    xp,
				Digest:   cp,
				Distance: score.Distance(xp, x, cp, cGiven, penalty, redundancy),
			})
		}
		return ops > budget
	}

outer:
	for n := 0; n <= widths.WRepair; n++ {
		before := len(hits)
		if n == 0 {
			if tryAndScore(append([]byte(nil), x...)) {
				aborted = true
				break outer
			}
		} else {
			for _, p := range bitops.Frames(n) {
				for i := 0; i <= blockBits-n; i++ {
					if tryAndScore(bitops.ApplyFrame(x, p, n, i)) {
						aborted = true
						break outer
					}
				}
			}
		}
		if len(hits) > before {
			break
		}
	}
	return hits, aborted
}

// Classify turns a block's hit set into the instruction records spec §4.6
// describes: NOHITS for an empty set, a single HIT! for exactly one hit,
// or one HIT per candidate plus a summary HIT? (carrying the
// minimum-distance candidate and its ambival score) for more than one.
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
