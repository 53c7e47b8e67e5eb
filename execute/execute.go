// Package execute applies repair/restore instruction files to a data file
// in place, and provides a block-by-block diagnosis tool for test
// harnesses that compares every pipeline stage against a known-original
// file (spec §4.8).
package execute

import (
	"io"
	"log/slog"
	"os"

	"github.com/archivekeep/bitrepair"
	"github.com/archivekeep/bitrepair/sidecar"
)

// Execute applies HIT! and HIT? instructions from instructionsPath to
// dataPath in place: each targeted block is overwritten at block_index*B
// with its recorded bytes. Other instruction kinds are informational and
// left untouched. A block whose write fails is skipped, not rolled back —
// earlier writes in the same run stand — so Execute is idempotent: running
// it twice on the same instruction file yields the same final bytes as
// running it once.
func Execute(blockBytes int, instructionsPath, dataPath string) (bitrepair.Summary, error) {
	instFile, err := os.Open(instructionsPath)
	if err != nil {
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: instructionsPath}
	}
	defer instFile.Close()

	hdr, err := sidecar.ReadHeader(instFile)
	if err != nil {
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.HeaderUnresolvable, Err: err, UserData: instructionsPath}
	}
	digestBytes := int(hdr.ChecksumBits) / 8

	dataFile, err := os.OpenFile(dataPath, os.O_RDWR, 0o644)
	if err != nil {
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: dataPath}
	}
	defer dataFile.Close()

	var summary bitrepair.Summary
	for {
		inst, err := sidecar.ReadInstruction(instFile, digestBytes)
		if err != nil {
			if err == io.EOF {
				break
			}
			return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: instructionsPath}
		}
		if inst.Kind != sidecar.KindHitBang && inst.Kind != sidecar.KindHitQuery {
			continue
		}
		summary.Total++
		offset := int64(inst.BlockIndex) * int64(blockBytes)
		if _, err := dataFile.WriteAt(inst.Block, offset); err != nil {
			slog.Warn("execute: skipping block, seek/write failed", "block_index", inst.BlockIndex, "err", err)
			summary.Failed++
			continue
		}
		summary.OK++
	}
	return summary, nil
}
