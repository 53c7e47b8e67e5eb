package blockio

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/archivekeep/bitrepair/checksum"
	"github.com/archivekeep/bitrepair/sidecar"
)

func writeTempFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestGenerateVerifyRoundTrip exercises scenario S1: a 3000-byte file with
// md5_32 and redundancy 32 partitions into B=128-byte blocks (24 of them),
// and an immediate verify against the freshly generated sidecar reports
// zero mismatches (invariant 1).
func TestGenerateVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	data := make([]byte, 3000)
	for i := range data {
		data[i] = byte(i)
	}
	dataPath := writeTempFile(t, dir, "data.bin", data)
	checksumPath := filepath.Join(dir, "data.bin.chk")

	method, err := checksum.ByName("md5_32")
	if err != nil {
		t.Fatal(err)
	}
	redundancy := 32

	ctx := context.Background()
	summary, err := Generate(ctx, method, redundancy, dataPath, checksumPath)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if summary.Total != 24 || summary.OK != 24 {
		t.Fatalf("Generate summary = %+v, want Total=24 OK=24", summary)
	}

	info, err := os.Stat(checksumPath)
	if err != nil {
		t.Fatal(err)
	}
	wantSidecarSize := int64(sidecar.HeaderLen + 24*method.DigestBytes())
	if info.Size() != wantSidecarSize {
		t.Errorf("sidecar size = %d, want %d", info.Size(), wantSidecarSize)
	}

	errorPath := filepath.Join(dir, "data.bin.err")
	vsummary, err := Verify(ctx, method, redundancy, dataPath, checksumPath, errorPath)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if vsummary.Failed != 0 || vsummary.OK != 24 || vsummary.Total != 24 {
		t.Fatalf("Verify summary = %+v, want all 24 blocks OK", vsummary)
	}
}

// TestGenerateDeterministic checks invariant 2: generating twice from the
// same data produces byte-identical sidecars.
func TestGenerateDeterministic(t *testing.T) {
	dir := t.TempDir()
	data := []byte("the quick brown fox jumps over the lazy dog, twice for good measure")
	dataPath := writeTempFile(t, dir, "data.bin", data)
	method, err := checksum.ByName("md5_16")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	p1 := filepath.Join(dir, "a.chk")
	p2 := filepath.Join(dir, "b.chk")
	if _, err := Generate(ctx, method, 8, dataPath, p1); err != nil {
		t.Fatal(err)
	}
	if _, err := Generate(ctx, method, 8, dataPath, p2); err != nil {
		t.Fatal(err)
	}
	b1, err := os.ReadFile(p1)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := os.ReadFile(p2)
	if err != nil {
		t.Fatal(err)
	}
	if string(b1) != string(b2) {
		t.Errorf("two Generate runs produced different sidecars")
	}
}

// TestVerifyDetectsCorruption flips a byte in the data file after
// generating and checks Verify reports exactly one mismatch, with a
// mismatch record and a human-readable twin file.
func TestVerifyDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	data := make([]byte, 512)
	for i := range data {
		data[i] = byte(i % 7)
	}
	dataPath := writeTempFile(t, dir, "data.bin", data)
	method, err := checksum.ByName("crc32")
	if err != nil {
		t.Fatal(err)
	}
	redundancy := 4
	checksumPath := filepath.Join(dir, "data.bin.chk")
	ctx := context.Background()
	if _, err := Generate(ctx, method, redundancy, dataPath, checksumPath); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(dataPath, os.O_RDWR, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteAt([]byte{0xFF}, 20); err != nil {
		t.Fatal(err)
	}
	f.Close()

	errorPath := filepath.Join(dir, "data.bin.err")
	summary, err := Verify(ctx, method, redundancy, dataPath, checksumPath, errorPath)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", summary.Failed)
	}

	ef, err := os.Open(errorPath)
	if err != nil {
		t.Fatal(err)
	}
	defer ef.Close()
	if _, err := sidecar.ReadHeader(bufio.NewReader(ef)); err != nil {
		t.Fatalf("ReadHeader on mismatch sidecar: %v", err)
	}
	if _, err := os.Stat(errorPath + ".txt"); err != nil {
		t.Fatalf("missing .txt twin file: %v", err)
	}
}
