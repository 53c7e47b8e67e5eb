package restore

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/archivekeep/bitrepair"
	"github.com/archivekeep/bitrepair/blockio"
	"github.com/archivekeep/bitrepair/calibrate"
	"github.com/archivekeep/bitrepair/checksum"
	"github.com/archivekeep/bitrepair/sidecar"
)

// Mode selects which repair-instruction kinds restore targets (spec §4.7).
type Mode int

const (
	// All processes NOHITS, BLENGTH?, CLENGTH?, TAMPER?, and HIT? records.
	All Mode = iota
	// AmbiNo processes the same set as All but skips HIT? records.
	AmbiNo
	// AmbiOnly processes only HIT? records.
	AmbiOnly
)

func targetKinds(mode Mode) map[string]bool {
	switch mode {
	case AmbiOnly:
		return map[string]bool{sidecar.KindHitQuery: true}
	case AmbiNo:
		return map[string]bool{
			sidecar.KindNoHits:  true,
			sidecar.KindBLength: true,
			sidecar.KindCLength: true,
			sidecar.KindTamper:  true,
		}
	default:
		return map[string]bool{
			sidecar.KindNoHits:   true,
			sidecar.KindBLength:  true,
			sidecar.KindCLength:  true,
			sidecar.KindTamper:   true,
			sidecar.KindHitQuery: true,
		}
	}
}

// Run reads repairPath's instruction records, selects the ones targeted by
// mode, and for each reconstructs the block against the backup data file
// and backup checksum sidecar, writing one restore instruction file at
// restorePath (spec §4.7). Per-block searches run on up to maxThreadCount
// goroutines; results are collected by block index and re-serialized
// ascending before writing, mirroring the repair engine.
func Run(ctx context.Context, method checksum.Method, penalty uint64, redundancy int, widths calibrate.Widths, budget uint64, maxThreadCount int, mode Mode, repairPath, backupDataPath, backupChecksumPath, restorePath string) (bitrepair.Summary, error) {
	blockBytes := method.DigestBytes() * redundancy
	digestBytes := method.DigestBytes()

	rf, err := os.Open(repairPath)
	if err != nil {
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: repairPath}
	}
	defer rf.Close()
	hdr, err := sidecar.ReadHeader(rf)
	if err != nil {
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.HeaderUnresolvable, Err: err, UserData: repairPath}
	}

	backupChecksum, err := os.Open(backupChecksumPath)
	if err != nil {
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: backupChecksumPath}
	}
	defer backupChecksum.Close()

	dio := blockio.NewDirectIO(blockBytes)
	scanner, err := blockio.OpenScanner(ctx, dio, backupDataPath, blockBytes)
	if err != nil {
		return bitrepair.Summary{}, err
	}
	defer scanner.Close()

	wanted := targetKinds(mode)
	var targeted []sidecar.Instruction
	for {
		inst, err := sidecar.ReadInstruction(rf, digestBytes)
		if err != nil {
			if err == io.EOF {
				break
			}
			return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: repairPath}
		}
		if wanted[inst.Kind] {
			targeted = append(targeted, inst)
		}
	}

	results := make([][]sidecar.Instruction, len(targeted))
	runner := bitrepair.NewTaskRunner(ctx, maxThreadCount)
	runner.GoEach(len(targeted), func(idx int) error {
		inst := targeted[idx]
		y, err := scanner.ReadBlock(runner.GetContext(), int64(inst.BlockIndex))
		if err != nil {
			return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: inst.BlockIndex}
		}
		cb, err := sidecar.ReadDigestAt(backupChecksum, digestBytes, inst.BlockIndex)
		if err != nil {
			return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: inst.BlockIndex}
		}

		x := inst.Block
		c := inst.Digest

		if len(x) != len(y) {
			results[idx] = []sidecar.Instruction{{Kind: sidecar.KindBLength, BlockIndex: inst.BlockIndex, BlockLen: uint64(len(x)), Digest: c, Block: x}}
			return nil
		}
		if len(c) != len(cb) {
			results[idx] = []sidecar.Instruction{{Kind: sidecar.KindCLength, BlockIndex: inst.BlockIndex, BlockLen: uint64(len(x)), Digest: c, Block: x}}
			return nil
		}

		hits, _ := SearchBlock(method.Compute, widths.Lc, penalty, redundancy, widths.WRestore, budget, x, y, c, cb)
		if len(hits) == 0 {
			slog.Warn("restore: block unresolved against backup", "block_index", inst.BlockIndex)
		}
		results[idx] = Classify(inst.BlockIndex, x, c, hits)
		return nil
	})
	if err := runner.Wait(); err != nil {
		return bitrepair.Summary{}, err
	}

	var summary bitrepair.Summary
	err = sidecar.WriteAtomic(restorePath, func(f *os.File) error {
		if err := sidecar.WriteHeader(f, hdr); err != nil {
			return err
		}
		for _, insts := range results {
			summary.Total++
			tallyOutcome(&summary, insts)
			for _, inst := range insts {
				if err := sidecar.WriteInstruction(f, inst); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: restorePath}
	}
	return summary, nil
}

func tallyOutcome(summary *bitrepair.Summary, insts []sidecar.Instruction) {
	if len(insts) == 0 {
		return
	}
	switch insts[len(insts)-1].Kind {
	case sidecar.KindHitBang:
		summary.OK++
	case sidecar.KindHitQuery:
		summary.Ambiguous++
	default:
		summary.Failed++
	}
}
