package restore

import (
	"bytes"
	"testing"

	"github.com/archivekeep/bitrepair/checksum"
	"github.com/archivekeep/bitrepair/sidecar"
)

// TestSearchBlockBurstReconstruction is scenario S5: the data block and its
// backup differ in 8 consecutive bits (a whole byte here), and the
// original block z — distinct from both — is recoverable by the
// transition-ordered search once its digest is known to both sides.
func TestSearchBlockBurstReconstruction(t *testing.T) {
	method, err := checksum.ByName("md5_32")
	if err != nil {
		t.Fatal(err)
	}
	z := make([]byte, 128)
	z[17] = 0x00

	x := append([]byte(nil), z...)
	x[17] = 0x0F
	y := append([]byte(nil), z...)
	y[17] = 0xF0

	c := method.Compute(z)
	cb := method.Compute(z)
	lc := method.DigestBits >> 4

	hits, aborted := SearchBlock(method.Compute, lc, 1, 32, 8, 50000, x, y, c, cb)
	if aborted && len(hits) == 0 {
		t.Fatal("search aborted without a hit")
	}
	found := false
	for _, h := range hits {
		if bytes.Equal(h.Block, z) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a hit reconstructing the original block, got %d hits", len(hits))
	}
}

// TestSearchBlockZeroDivergence covers the D=0 regime: identical data and
// backup blocks are accepted as the sole hit when their shared checksum is
// within tolerance of either stored digest.
func TestSearchBlockZeroDivergence(t *testing.T) {
	method, err := checksum.ByName("crc32")
	if err != nil {
		t.Fatal(err)
	}
	block := []byte("identical on both sides")
	c := method.Compute(block)
	lc := method.DigestBits >> 4

	hits, _ := SearchBlock(method.Compute, lc, 1, 8, 4, 1000, block, block, c, c)
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1 for D=0 regime", len(hits))
	}
	if !bytes.Equal(hits[0].Block, block) {
		t.Error("D=0 hit should be the shared block itself")
	}
}

// TestSearchBlockTooDivergentAcceptsExactBackupMatch covers D>W_restore:
// when the two blocks are too different to search and the backup's
// checksum matches the data's given digest exactly, the backup block is
// accepted outright.
func TestSearchBlockTooDivergentAcceptsExactBackupMatch(t *testing.T) {
	method, err := checksum.ByName("crc32")
	if err != nil {
		t.Fatal(err)
	}
	y := bytes.Repeat([]byte{0xAA}, 32)
	x := bytes.Repeat([]byte{0x55}, 32)
	c := method.Compute(y)
	cb := method.Compute(bytes.Repeat([]byte{0x11}, 32))
	lc := method.DigestBits >> 4

	hits, _ := SearchBlock(method.Compute, lc, 1, 8, 2, 100, x, y, c, cb)
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1 (exact backup match)", len(hits))
	}
	if !bytes.Equal(hits[0].Block, y) {
		t.Error("hit should be the backup block")
	}
}

func TestClassifyNoHitsCarriesOriginal(t *testing.T) {
	x := []byte{1, 2, 3}
	c := []byte{9, 9}
	insts := Classify(5, x, c, nil)
	if len(insts) != 1 || insts[0].Kind != sidecar.KindNoHits {
		t.Fatalf("Classify = %+v, want single NOHITS", insts)
	}
	if !bytes.Equal(insts[0].Block, x) || !bytes.Equal(insts[0].Digest, c) {
		t.Error("NOHITS must carry the original block and given digest")
	}
}
