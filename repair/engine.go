package repair

import (
	"context"
	"io"
	"os"

	"github.com/archivekeep/bitrepair"
	"github.com/archivekeep/bitrepair/blockio"
	"github.com/archivekeep/bitrepair/calibrate"
	"github.com/archivekeep/bitrepair/checksum"
	"github.com/archivekeep/bitrepair/sidecar"
)

// Run reads the mismatch list from errorPath, searches each corrupt block
// named there for checksum-consistent repairs, and writes one repair
// instruction file at repairPath with records in ascending block order
// (spec §4.6). Per-block searches run on up to maxThreadCount goroutines;
// results are collected by block index and re-serialized ascending before
// writing, since bitrepair.TaskRunner makes no completion-order guarantee.
func Run(ctx context.Context, method checksum.Method, penalty uint64, redundancy int, widths calibrate.Widths, budget uint64, maxThreadCount int, dataPath, errorPath, repairPath string) (bitrepair.Summary, error) {
	blockBytes := method.DigestBytes() * redundancy
	dio := blockio.NewDirectIO(blockBytes)

	scanner, err := blockio.OpenScanner(ctx, dio, dataPath, blockBytes)
	if err != nil {
		return bitrepair.Summary{}, err
	}
	defer scanner.Close()

	ef, err := os.Open(errorPath)
	if err != nil {
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: errorPath}
	}
	defer ef.Close()

	hdr, err := sidecar.ReadHeader(ef)
	if err != nil {
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.HeaderUnresolvable, Err: err, UserData: errorPath}
	}

	var mismatches []sidecar.Mismatch
	for {
		m, err := sidecar.ReadMismatch(ef, method.DigestBytes())
		if err != nil {
			if err == io.EOF {
				break
			}
			return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: errorPath}
		}
		mismatches = append(mismatches, m)
	}

	results := make([][]sidecar.Instruction, len(mismatches))
	runner := bitrepair.NewTaskRunner(ctx, maxThreadCount)
	runner.GoEach(len(mismatches), func(idx int) error {
		m := mismatches[idx]
		block, err := scanner.ReadBlock(runner.GetContext(), int64(m.BlockIndex))
		if err != nil {
			return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: m.BlockIndex}
		}
		hits, _ := SearchBlock(method, penalty, redundancy, widths, budget, block, m.GivenDigest)
		results[idx] = Classify(m.BlockIndex, block, m.GivenDigest, hits)
		return nil
	})
	if err := runner.Wait(); err != nil {
		return bitrepair.Summary{}, err
	}

	var summary bitrepair.Summary
	err = sidecar.WriteAtomic(repairPath, func(f *os.File) error {
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
		return bitrepair.Summary{}, bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: repairPath}
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
