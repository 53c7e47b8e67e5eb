package sidecar

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Mismatch is a verify-output record: a block whose stored digest didn't
// match the digest computed from the data file.
type Mismatch struct {
	BlockIndex     uint64
	GivenDigest    []byte
	ComputedDigest []byte
}

// WriteMismatch appends a binary mismatch record: block_index:u64-LE,
// given_digest, computed_digest (spec §6).
func WriteMismatch(w io.Writer, m Mismatch) error {
	var head [8]byte
	binary.LittleEndian.PutUint64(head[:], m.BlockIndex)
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	if _, err := w.Write(m.GivenDigest); err != nil {
		return err
	}
	_, err := w.Write(m.ComputedDigest)
	return err
}

// ReadMismatch reads one mismatch record given the digest width in bytes.
func ReadMismatch(r io.Reader, digestBytes int) (Mismatch, error) {
	var head [8]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Mismatch{}, err
	}
	given := make([]byte, digestBytes)
	if _, err := io.ReadFull(r, given); err != nil {
		return Mismatch{}, fmt.Errorf("sidecar: truncated mismatch record: %w", err)
	}
	computed := make([]byte, digestBytes)
	if _, err := io.ReadFull(r, computed); err != nil {
		return Mismatch{}, fmt.Errorf("sidecar: truncated mismatch record: %w", err)
	}
	return Mismatch{
		BlockIndex:     binary.LittleEndian.Uint64(head[:]),
		GivenDigest:    given,
		ComputedDigest: computed,
	}, nil
}
