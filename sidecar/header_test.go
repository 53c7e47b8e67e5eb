package sidecar

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Method: "sha256", ChecksumBits: 256, BlockBytes: 4096}
	var buf bytes.Buffer
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != HeaderLen {
		t.Fatalf("header len = %d, want %d", buf.Len(), HeaderLen)
	}
	got, err := ReadHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("round trip = %+v, want %+v", got, h)
	}
}

func TestHeaderSelfRepairNumericField(t *testing.T) {
	h := Header{Method: "sha256", ChecksumBits: 256, BlockBytes: 4096}
	var buf bytes.Buffer
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	// Corrupt checksum_bits_B (offset 20..24) to a non-power-of-two value.
	raw[20], raw[21], raw[22], raw[23] = 0xFF, 0xFF, 0xFF, 0xFF

	got, err := ReadHeader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("expected recoverable header, got error: %v", err)
	}
	if got != h {
		t.Errorf("repaired header = %+v, want %+v", got, h)
	}
}

func TestHeaderSelfRepairMethodField(t *testing.T) {
	h := Header{Method: "md5_32", ChecksumBits: 32, BlockBytes: 128}
	var buf bytes.Buffer
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	// Corrupt method_name_B to something not a recognized method name.
	copy(raw[8:16], []byte("xxxxxxxx"))

	got, err := ReadHeader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("expected recoverable header, got error: %v", err)
	}
	if got != h {
		t.Errorf("repaired header = %+v, want %+v", got, h)
	}
}

func TestHeaderUnresolvableBothCorrupt(t *testing.T) {
	h := Header{Method: "md5", ChecksumBits: 128, BlockBytes: 512}
	var buf bytes.Buffer
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	// Corrupt both copies of checksum_bits to non-powers-of-two.
	raw[16], raw[17], raw[18], raw[19] = 3, 0, 0, 0
	raw[20], raw[21], raw[22], raw[23] = 5, 0, 0, 0

	if _, err := ReadHeader(bytes.NewReader(raw)); err == nil {
		t.Error("expected unresolvable header error")
	}
}
