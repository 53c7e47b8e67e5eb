// Package calibrate computes the per-method search-width parameters
// (W_repair, W_restore, L_c) so that expected operation counts hit a
// user-supplied brute-force budget, regardless of block size or checksum
// width.
package calibrate

// CostFactor normalizes a block's bit-width against MD5 with R=32
// (a 4096-bit / 512-byte block), per spec §4.10.
func CostFactor(blockBytes int) float64 {
	return float64(blockBytes*8) / 4096.0
}

// Widths bundles the calibrated search parameters for one run.
type Widths struct {
	// WRepair is the frame width cap for the repair engine's progressive
	// dithered search (spec §4.6).
	WRepair int
	// WRestore is the divergent-bit cap for the restore engine's
	// transition-ordered enumeration (spec §4.7).
	WRestore int
	// Lc is the checksum-distance tolerance, K/16 bits.
	Lc int
}

// Calibrate derives WRepair, WRestore and Lc from the user's brute-force
// budgets and the method's digest width K and derived block size B.
func Calibrate(bruteRepair, bruteRestore uint64, digestBits, blockBytes int) Widths {
	cf := CostFactor(blockBytes)
	blockBits := float64(blockBytes * 8)

	wRepair := 1
	for float64(pow2(wRepair-1))*blockBits*cf < float64(bruteRepair) {
		wRepair++
	}

	wRestore := 0
	for float64(pow2(wRestore))*cf < float64(bruteRestore) {
		wRestore++
	}

	return Widths{
		WRepair:  wRepair,
		WRestore: wRestore,
		Lc:       digestBits >> 4,
	}
}

func pow2(n int) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(1) << uint(n)
}
