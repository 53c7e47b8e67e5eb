// Package sidecar implements the 32-byte self-redundant header that
// begins every non-data sidecar file, plus the binary record codecs for
// checksum digests, verify mismatches, and repair/restore instructions.
package sidecar

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/archivekeep/bitrepair/checksum"
)

// HeaderLen is the fixed on-disk size of a sidecar header.
const HeaderLen = 32

// Header carries the reconciled (non-duplicated) fields of a sidecar
// header: the checksum method name, its digest width in bits, and the
// data block size in bytes.
type Header struct {
	Method       string
	ChecksumBits uint32
	BlockBytes   uint32
}

// WriteHeader writes a 32-byte header with every field duplicated, per
// spec §6.
func WriteHeader(w io.Writer, h Header) error {
	buf := make([]byte, HeaderLen)
	putName(buf[0:8], h.Method)
	putName(buf[8:16], h.Method)
	binary.LittleEndian.PutUint32(buf[16:20], h.ChecksumBits)
	binary.LittleEndian.PutUint32(buf[20:24], h.ChecksumBits)
	binary.LittleEndian.PutUint32(buf[24:28], h.BlockBytes)
	binary.LittleEndian.PutUint32(buf[28:32], h.BlockBytes)
	_, err := w.Write(buf)
	return err
}

func putName(dst []byte, name string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, name)
}

func getName(src []byte) string {
	n := 0
	for n < len(src) && src[n] != 0 {
		n++
	}
	return string(src[:n])
}

// ReadHeader reads and reconciles a 32-byte header. Each logical field is
// carried twice; a single corrupted copy is repaired by preferring the
// other copy (chosen by power-of-two validity for the numeric fields, and
// by recognized-method validity for the name) and a warning is logged.
// If a field cannot be reconciled, ReadHeader returns an error classified
// as header-unresolvable and the task must abort.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, fmt.Errorf("sidecar: read header: %w", err)
	}

	nameA := getName(buf[0:8])
	nameB := getName(buf[8:16])
	bitsA := binary.LittleEndian.Uint32(buf[16:20])
	bitsB := binary.LittleEndian.Uint32(buf[20:24])
	blockA := binary.LittleEndian.Uint32(buf[24:28])
	blockB := binary.LittleEndian.Uint32(buf[28:32])

	method, err := reconcileMethod(nameA, nameB)
	if err != nil {
		return Header{}, err
	}
	bits, err := reconcileNumeric("checksum_bits", bitsA, bitsB)
	if err != nil {
		return Header{}, err
	}
	block, err := reconcileNumeric("block_bytes", blockA, blockB)
	if err != nil {
		return Header{}, err
	}

	return Header{Method: method, ChecksumBits: bits, BlockBytes: block}, nil
}

func reconcileMethod(a, b string) (string, error) {
	if a == b {
		return a, nil
	}
	aOK := isKnownMethod(a)
	bOK := isKnownMethod(b)
	switch {
	case aOK && !bOK:
		slog.Warn("sidecar: header method_name_B corrupted, repaired from method_name_A", "a", a, "b", b)
		return a, nil
	case bOK && !aOK:
		slog.Warn("sidecar: header method_name_A corrupted, repaired from method_name_B", "a", a, "b", b)
		return b, nil
	default:
		return "", fmt.Errorf("sidecar: unresolvable header method name (a=%q, b=%q)", a, b)
	}
}

func isKnownMethod(name string) bool {
	_, err := checksum.ByName(name)
	return err == nil
}

func isPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

func reconcileNumeric(field string, a, b uint32) (uint32, error) {
	if a == b {
		return a, nil
	}
	aOK := isPowerOfTwo(a)
	bOK := isPowerOfTwo(b)
	switch {
	case aOK && !bOK:
		slog.Warn("sidecar: header field corrupted, repaired from twin A", "field", field, "a", a, "b", b)
		return a, nil
	case bOK && !aOK:
		slog.Warn("sidecar: header field corrupted, repaired from twin B", "field", field, "a", a, "b", b)
		return b, nil
	default:
		return 0, fmt.Errorf("sidecar: unresolvable header field %s (a=%d, b=%d)", field, a, b)
	}
}
