package execute

import (
	"context"
	"io"
	"os"

	"github.com/archivekeep/bitrepair"
	"github.com/archivekeep/bitrepair/bitops"
	"github.com/archivekeep/bitrepair/blockio"
	"github.com/archivekeep/bitrepair/sidecar"
)

// StageResult captures one pipeline stage's classification for a block.
type StageResult struct {
	Kind     string
	Distance uint64
	Ambival  uint64
}

// BlockDiagnosis is the side-by-side comparison Diagnose emits for one
// block whose final instruction disagrees with the known-original block.
type BlockDiagnosis struct {
	BlockIndex uint64

	RepairStage  StageResult
	RestoreStage *StageResult // nil if restore did not target this block

	// Hamming distances between successive pipeline stages, spec §4.8.
	OriginalCorrupt int // original ↔ corrupt
	CorruptRepair   int // corrupt ↔ repair
	RepairRestore   int // repair ↔ restore (zero if RestoreStage is nil)
	OriginalData    int // original ↔ final data file
}

// Diagnose compares the repair and restore instruction files against a
// known-original file, a backup file, and the pre-repair corrupted file,
// and reports every block whose final instruction (restore taking
// precedence over repair) disagrees with the original (spec §4.8). It is
// used only by test harnesses, never by the generate/verify/repair/restore
// pipeline itself. backupPath is accepted for parity with the restore
// engine's own inputs but doesn't appear in any of the four comparison
// pairs below.
func Diagnose(ctx context.Context, blockBytes int, repairPath, restorePath, originalPath, backupPath string, corruptPath, dataPath string) ([]BlockDiagnosis, error) {
	_ = backupPath

	repairByBlock, err := readInstructionsByBlock(repairPath)
	if err != nil {
		return nil, err
	}
	restoreByBlock, err := readInstructionsByBlock(restorePath)
	if err != nil {
		return nil, err
	}

	dio := blockio.NewDirectIO(blockBytes)
	origScanner, err := blockio.OpenScanner(ctx, dio, originalPath, blockBytes)
	if err != nil {
		return nil, err
	}
	defer origScanner.Close()
	corruptScanner, err := blockio.OpenScanner(ctx, dio, corruptPath, blockBytes)
	if err != nil {
		return nil, err
	}
	defer corruptScanner.Close()
	dataScanner, err := blockio.OpenScanner(ctx, dio, dataPath, blockBytes)
	if err != nil {
		return nil, err
	}
	defer dataScanner.Close()

	var out []BlockDiagnosis
	blockCount := origScanner.BlockCount()
	for i := int64(0); i < blockCount; i++ {
		origBlock, err := origScanner.ReadBlock(ctx, i)
		if err != nil {
			return nil, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: i}
		}

		repairInst, hasRepair := repairByBlock[uint64(i)]
		restoreInst, hasRestore := restoreByBlock[uint64(i)]

		final := repairInst
		hasFinal := hasRepair
		if hasRestore {
			final = restoreInst
			hasFinal = true
		}
		if !hasFinal || bytesEqual(final.Block, origBlock) {
			continue
		}

		corruptBlock, err := corruptScanner.ReadBlock(ctx, i)
		if err != nil {
			return nil, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: i}
		}
		dataBlock, err := dataScanner.ReadBlock(ctx, i)
		if err != nil {
			return nil, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: i}
		}

		diag := BlockDiagnosis{
			BlockIndex:  uint64(i),
			RepairStage: StageResult{Kind: repairInst.Kind, Distance: repairInst.Distance, Ambival: repairInst.Ambival},
		}
		if hasRestore {
			diag.RestoreStage = &StageResult{Kind: restoreInst.Kind, Distance: restoreInst.Distance, Ambival: restoreInst.Ambival}
		}
		if len(origBlock) == len(corruptBlock) {
			diag.OriginalCorrupt = bitops.HammingDistance(origBlock, corruptBlock)
		}
		if hasRepair && len(corruptBlock) == len(repairInst.Block) {
			diag.CorruptRepair = bitops.HammingDistance(corruptBlock, repairInst.Block)
		}
		if hasRepair && hasRestore && len(repairInst.Block) == len(restoreInst.Block) {
			diag.RepairRestore = bitops.HammingDistance(repairInst.Block, restoreInst.Block)
		}
		if len(origBlock) == len(dataBlock) {
			diag.OriginalData = bitops.HammingDistance(origBlock, dataBlock)
		}
		out = append(out, diag)
	}
	return out, nil
}

func readInstructionsByBlock(path string) (map[uint64]sidecar.Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: path}
	}
	defer f.Close()

	hdr, err := sidecar.ReadHeader(f)
	if err != nil {
		return nil, bitrepair.Error{Code: bitrepair.HeaderUnresolvable, Err: err, UserData: path}
	}
	digestBytes := int(hdr.ChecksumBits) / 8

	out := map[uint64]sidecar.Instruction{}
	for {
		inst, err := sidecar.ReadInstruction(f, digestBytes)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: path}
		}
		out[inst.BlockIndex] = inst
	}
	return out, nil
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
