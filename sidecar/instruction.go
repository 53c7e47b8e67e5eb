package sidecar

import (
	"encoding/binary"
	"fmt"
	"io"
)

// InstructionHeadLen is the fixed-size head of an instruction record
// (kind, block_index, block_len, distance, ambival), before its two
// variable-length tail fields.
const InstructionHeadLen = 40

// Kind tags for instruction records (spec §6). TAMPER? is reserved: the
// reference engine never emits it (spec §9 open question a), but readers
// must accept both "TAMPER?" and the historical "TAMPER" spelling
// (spec §9 open question b).
const (
	KindHit       = "HIT"
	KindHitBang   = "HIT!"
	KindHitQuery  = "HIT?"
	KindNoHits    = "NOHITS"
	KindBLength   = "BLENGTH?"
	KindCLength   = "CLENGTH?"
	KindTamper    = "TAMPER?"
	kindTamperAlt = "TAMPER"
)

// Instruction is a repair/restore output record.
type Instruction struct {
	Kind       string
	BlockIndex uint64
	BlockLen   uint64
	Distance   uint64
	Ambival    uint64
	Digest     []byte
	Block      []byte
}

// NormalizeKind maps the historical "TAMPER" spelling to "TAMPER?" so
// callers can branch on the canonical tag set (spec §9 open question b).
func NormalizeKind(kind string) string {
	if kind == kindTamperAlt {
		return KindTamper
	}
	return kind
}

// WriteInstruction appends one instruction record: a 40-byte head
// followed by the digest and block tail fields.
func WriteInstruction(w io.Writer, inst Instruction) error {
	var head [InstructionHeadLen]byte
	putName(head[0:8], inst.Kind)
	binary.LittleEndian.PutUint64(head[8:16], inst.BlockIndex)
	binary.LittleEndian.PutUint64(head[16:24], inst.BlockLen)
	binary.LittleEndian.PutUint64(head[24:32], inst.Distance)
	binary.LittleEndian.PutUint64(head[32:40], inst.Ambival)
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	if _, err := w.Write(inst.Digest); err != nil {
		return err
	}
	_, err := w.Write(inst.Block)
	return err
}

// ReadInstruction reads one instruction record given the digest width in
// bytes (the tail's block length is self-describing via block_len).
func ReadInstruction(r io.Reader, digestBytes int) (Instruction, error) {
	var head [InstructionHeadLen]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Instruction{}, err
	}
	inst := Instruction{
		Kind:       NormalizeKind(getName(head[0:8])),
		BlockIndex: binary.LittleEndian.Uint64(head[8:16]),
		BlockLen:   binary.LittleEndian.Uint64(head[16:24]),
		Distance:   binary.LittleEndian.Uint64(head[24:32]),
		Ambival:    binary.LittleEndian.Uint64(head[32:40]),
	}
	inst.Digest = make([]byte, digestBytes)
	if _, err := io.ReadFull(r, inst.Digest); err != nil {
		return Instruction{}, fmt.Errorf("sidecar: truncated instruction digest: %w", err)
	}
	inst.Block = make([]byte, inst.BlockLen)
	if _, err := io.ReadFull(r, inst.Block); err != nil {
		return Instruction{}, fmt.Errorf("sidecar: truncated instruction block: %w", err)
	}
	return inst, nil
}
