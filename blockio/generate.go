package blockio

import (
	"context"
	"os"

	"github.com/archivekeep/bitrepair"
	"github.com/archivekeep/bitrepair/checksum"
	"github.com/archivekeep/bitrepair/sidecar"
)

// Generate reads dataPath sequentially in blocks of method.DigestBytes()*redundancy
// bytes and writes a checksum sidecar at checksumPath: a 32-byte header
// followed by one digest per block, in block order (spec §4.4). It fails
// only on I/O errors, and an I/O error on any block aborts the whole task;
// no partially-written checksum sidecar is left at checksumPath.
func Generate(ctx context.Context, method checksum.Method, redundancy int, dataPath, checksumPath string) (bitrepair.Summary, error) {
	blockBytes := method.DigestBytes() * redundancy
	dio := NewDirectIO(blockBytes)

	scanner, err := OpenScanner(ctx, dio, dataPath, blockBytes)
	if err != nil {
		return bitrepair.Summary{}, err
	}
	defer scanner.Close()

	blockCount := scanner.BlockCount()
	var summary bitrepair.Summary

	err = sidecar.WriteAtomic(checksumPath, func(f *os.File) error {
		if err := sidecar.WriteHeader(f, sidecar.Header{
			Method:       method.Name,
			ChecksumBits: uint32(method.DigestBits),
			BlockBytes:   uint32(blockBytes),
		}); err != nil {
			return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: checksumPath}
		}
		for i := int64(0); i < blockCount; i++ {
			block, err := scanner.ReadBlock(ctx, i)
			if err != nil {
				return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: i}
			}
			digest := method.Compute(block)
			if err := sidecar.WriteDigest(f, digest); err != nil {
				return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: i}
			}
			summary.OK++
			summary.Total++
		}
		return nil
	})
	if err != nil {
		return bitrepair.Summary{}, err
	}
	return summary, nil
}
