package blockio

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/archivekeep/bitrepair"
	"github.com/archivekeep/bitrepair/checksum"
	"github.com/archivekeep/bitrepair/sidecar"
)

// Verify reads dataPath and checksumPath in lockstep, one block at a time.
// For each block it recomputes the digest and compares it to the stored
// one; mismatches are appended to errorPath (a sidecar with the same
// 32-byte header plus one mismatch record per bad block) and to a
// human-readable errorPath+".txt" twin. Verify never writes to dataPath or
// checksumPath, and a mismatched block does not abort the task — unlike
// Generate, a partial verify result is still useful.
func Verify(ctx context.Context, method checksum.Method, redundancy int, dataPath, checksumPath, errorPath string) (bitrepair.Summary, error) {
	blockBytes := method.DigestBytes() * redundancy
	dio := NewDirectIO(blockBytes)

	scanner, err := OpenScanner(ctx, dio, dataPath, blockBytes)
	if err != nil {
		return bitrepair.Summary{}, err
	}
	defer scanner.Close()

	csFile, err := os.Open(checksumPath)
	if err != nil {
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: checksumPath}
	}
	defer csFile.Close()

	hdr, err := sidecar.ReadHeader(csFile)
	if err != nil {
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.HeaderUnresolvable, Err: err, UserData: checksumPath}
	}
	if int(hdr.BlockBytes) != blockBytes {
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.BlockLengthMismatch, Err: fmt.Errorf("checksum sidecar block size %d, expected %d", hdr.BlockBytes, blockBytes), UserData: checksumPath}
	}
	digests := sidecar.NewDigestReader(csFile, method.DigestBytes())

	var summary bitrepair.Summary
	var mismatches []sidecar.Mismatch

	blockCount := scanner.BlockCount()
	for i := int64(0); i < blockCount; i++ {
		block, err := scanner.ReadBlock(ctx, i)
		if err != nil {
			return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: i}
		}
		given, err := digests.Next()
		if err != nil {
			return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: i}
		}
		computed := method.Compute(block)
		summary.Total++
		if bytesEqual(given, computed) {
			summary.OK++
			continue
		}
		summary.Failed++
		mismatches = append(mismatches, sidecar.Mismatch{BlockIndex: uint64(i), GivenDigest: given, ComputedDigest: computed})
	}

	if err := writeMismatchSidecar(hdr, mismatches, errorPath); err != nil {
		return bitrepair.Summary{}, err
	}
	return summary, nil
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

func writeMismatchSidecar(hdr sidecar.Header, mismatches []sidecar.Mismatch, errorPath string) error {
	err := sidecar.WriteAtomic(errorPath, func(f *os.File) error {
		if err := sidecar.WriteHeader(f, hdr); err != nil {
			return err
		}
		for _, m := range mismatches {
			if err := sidecar.WriteMismatch(f, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: errorPath}
	}

	txtPath := errorPath + ".txt"
	txt, err := os.Create(txtPath)
	if err != nil {
		return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: txtPath}
	}
	defer txt.Close()

	w := bufio.NewWriter(txt)
	for _, m := range mismatches {
		if _, err := fmt.Fprintf(w, "block %d: given=%x computed=%x\n", m.BlockIndex, m.GivenDigest, m.ComputedDigest); err != nil {
			return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: txtPath}
		}
	}
	if err := w.Flush(); err != nil {
		return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: txtPath}
	}
	return nil
}
