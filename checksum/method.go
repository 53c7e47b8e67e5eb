// Package checksum provides the uniform checksum method descriptor used
// throughout bitrepair: a named, fixed-width digest function selected once
// at task start and passed down as a capability rather than dispatched
// through a global symbol table.
package checksum

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"golang.org/x/crypto/md4"
)

// Method is the capability set a task selects once and threads through
// every procedure: its name, its digest width in bits, and the pure
// function that computes a digest over a block. Checksum computation
// cannot fail on in-memory bytes, so Compute has no error return.
type Method struct {
	Name      string
	DigestBits int
	Compute   func(block []byte) []byte
}

// DigestBytes is the digest width in bytes (K/8).
func (m Method) DigestBytes() int {
	return m.DigestBits / 8
}

// md5Select returns a truncated-MD5 method that selects the given byte
// indices from the full 16-byte MD5 digest, source-compatible with the
// selections listed in spec §6.
func md5Select(name string, bits int, indices []int) Method {
	return Method{
		Name:       name,
		DigestBits: bits,
		Compute: func(block []byte) []byte {
			full := md5.Sum(block)
			out := make([]byte, len(indices))
			for i, idx := range indices {
				out[i] = full[idx]
			}
			return out
		},
	}
}

// ByName resolves a checksum method by its name. Names are the
// source-compatible set: md4, md5, sha256, crc32, md5_16, md5_32, md5_64.
func ByName(name string) (Method, error) {
	switch name {
	case "md4":
		return Method{
			Name:       "md4",
			DigestBits: 128,
			Compute: func(block []byte) []byte {
				h := md4.New()
				h.Write(block)
				return h.Sum(nil)
			},
		}, nil
	case "md5":
		return Method{
			Name:       "md5",
			DigestBits: 128,
			Compute: func(block []byte) []byte {
				sum := md5.Sum(block)
				return sum[:]
			},
		}, nil
	case "sha256":
		return Method{
			Name:       "sha256",
			DigestBits: 256,
			Compute: func(block []byte) []byte {
				sum := sha256.Sum256(block)
				return sum[:]
			},
		}, nil
	case "crc32":
		return Method{
			Name:       "crc32",
			DigestBits: 32,
			Compute: func(block []byte) []byte {
				sum := crc32.ChecksumIEEE(block)
				out := make([]byte, 4)
				binary.LittleEndian.PutUint32(out, sum)
				return out
			},
		}, nil
	case "md5_16":
		return md5Select("md5_16", 16, []int{6, 13}), nil
	case "md5_32":
		return md5Select("md5_32", 32, []int{2, 6, 10, 14}), nil
	case "md5_64":
		return md5Select("md5_64", 64, []int{2, 3, 6, 9, 10, 12, 13, 15}), nil
	default:
		return Method{}, fmt.Errorf("checksum: unknown method %q", name)
	}
}
