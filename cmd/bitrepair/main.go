// Command bitrepair wraps the generate/verify/repair/restore/execute/
// diagnose pipeline described in the package docs as a single-binary CLI,
// one flag.FlagSet per subcommand.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/archivekeep/bitrepair"
	"github.com/archivekeep/bitrepair/blockio"
	"github.com/archivekeep/bitrepair/calibrate"
	"github.com/archivekeep/bitrepair/checksum"
	"github.com/archivekeep/bitrepair/execute"
	"github.com/archivekeep/bitrepair/repair"
	"github.com/archivekeep/bitrepair/restore"
)

func main() {
	bitrepair.ConfigureLogging()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "generate":
		err = runGenerate(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	case "repair":
		err = runRepair(os.Args[2:])
	case "restore":
		err = runRestore(os.Args[2:])
	case "execute":
		err = runExecute(os.Args[2:])
	case "diagnose":
		err = runDiagnose(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "bitrepair:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: bitrepair <generate|verify|repair|restore|execute|diagnose> [flags]")
}

// orDefault returns cfg when it's nonzero, else fallback; used to let a
// loaded Config's zero fields defer to the flag's usual default.
func orDefault(cfg uint64, fallback uint64) uint64 {
	if cfg == 0 {
		return fallback
	}
	return cfg
}

func orDefaultInt(cfg int, fallback int) int {
	if cfg == 0 {
		return fallback
	}
	return cfg
}

// configDefaults loads a -config JSON file (bitrepair.Config) ahead of
// flag parsing, if one is present in args, so its values become the
// flags' defaults; explicit flags still override it since fs.Parse runs
// afterward. Returns a zero-ish Config carrying bitrepair's usual
// fallbacks when no -config flag is present.
func configDefaults(args []string) (bitrepair.Config, error) {
	fs := flag.NewFlagSet("config-prescan", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("config", "", "path to a JSON config file (bitrepair.Config)")
	_ = fs.Parse(args)
	if *path == "" {
		return bitrepair.Config{Method: "md5_32", Redundancy: 32, ChecksumPenalty: 1, MaxThreadCount: 4}, nil
	}
	return bitrepair.LoadConfig(*path)
}

func runGenerate(args []string) error {
	cfg, err := configDefaults(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	fs.String("config", "", "path to a JSON config file (bitrepair.Config)")
	method := fs.String("method", cfg.Method, "checksum method: md4, md5, sha256, crc32, md5_16, md5_32, md5_64")
	redundancy := fs.Int("redundancy", cfg.Redundancy, "redundancy factor R (block size = digest bytes * R)")
	dataPath := fs.String("data", "", "path to the data file")
	checksumPath := fs.String("checksum", "", "path to write the checksum sidecar")
	fs.Parse(args)

	m, err := checksum.ByName(*method)
	if err != nil {
		return err
	}
	summary, err := blockio.Generate(context.Background(), m, *redundancy, *dataPath, *checksumPath)
	if err != nil {
		return err
	}
	fmt.Printf("generate: ok=%d total=%d\n", summary.OK, summary.Total)
	return nil
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	method := fs.String("method", "md5_32", "checksum method")
	redundancy := fs.Int("redundancy", 32, "redundancy factor R")
	dataPath := fs.String("data", "", "path to the data file")
	checksumPath := fs.String("checksum", "", "path to the checksum sidecar")
	errorPath := fs.String("error", "", "path to write the mismatch sidecar")
	fs.Parse(args)

	m, err := checksum.ByName(*method)
	if err != nil {
		return err
	}
	summary, err := blockio.Verify(context.Background(), m, *redundancy, *dataPath, *checksumPath, *errorPath)
	if err != nil {
		return err
	}
	fmt.Printf("verify: ok=%d failed=%d total=%d\n", summary.OK, summary.Failed, summary.Total)
	if summary.Failed > 0 {
		os.Exit(1)
	}
	return nil
}

func runRepair(args []string) error {
	cfg, err := configDefaults(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("repair", flag.ExitOnError)
	fs.String("config", "", "path to a JSON config file (bitrepair.Config)")
	method := fs.String("method", cfg.Method, "checksum method")
	redundancy := fs.Int("redundancy", cfg.Redundancy, "redundancy factor R")
	bruteforce := fs.Uint64("bruteforce-repair", orDefault(cfg.BruteForceRepair, 1_000_000), "repair brute-force operation budget")
	penalty := fs.Uint64("checksum-penalty", cfg.ChecksumPenalty, "checksum-distance penalty P")
	threads := fs.Int("threads", orDefaultInt(cfg.MaxThreadCount, 4), "max concurrent block searches")
	dataPath := fs.String("data", "", "path to the data file")
	errorPath := fs.String("error", "", "path to the mismatch sidecar")
	repairPath := fs.String("repair", "", "path to write the repair instructions")
	fs.Parse(args)

	m, err := checksum.ByName(*method)
	if err != nil {
		return err
	}
	r := *redundancy
	blockBytes := m.DigestBytes() * r
	widths := calibrate.Calibrate(*bruteforce, 0, m.DigestBits, blockBytes)
	summary, err := repair.Run(context.Background(), m, *penalty, r, widths, *bruteforce, *threads, *dataPath, *errorPath, *repairPath)
	if err != nil {
		return err
	}
	fmt.Printf("repair: ok=%d ambiguous=%d failed=%d total=%d\n", summary.OK, summary.Ambiguous, summary.Failed, summary.Total)
	return nil
}

func runRestore(args []string) error {
	cfg, err := configDefaults(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	fs.String("config", "", "path to a JSON config file (bitrepair.Config)")
	method := fs.String("method", cfg.Method, "checksum method")
	redundancy := fs.Int("redundancy", cfg.Redundancy, "redundancy factor R")
	bruteforce := fs.Uint64("bruteforce-restore", orDefault(cfg.BruteForceRestore, 100_000), "restore brute-force operation budget")
	penalty := fs.Uint64("checksum-penalty", cfg.ChecksumPenalty, "checksum-distance penalty P")
	threads := fs.Int("threads", orDefaultInt(cfg.MaxThreadCount, 4), "max concurrent block searches")
	mode := fs.String("mode", "all", "restore mode: all, ambi_no, ambi_only")
	repairPath := fs.String("repair", "", "path to the repair instructions")
	backupData := fs.String("backup-data", "", "path to the backup data file")
	backupChecksum := fs.String("backup-checksum", "", "path to the backup checksum sidecar")
	restorePath := fs.String("restore", "", "path to write the restore instructions")
	fs.Parse(args)

	m, err := checksum.ByName(*method)
	if err != nil {
		return err
	}
	r := *redundancy
	blockBytes := m.DigestBytes() * r
	widths := calibrate.Calibrate(0, *bruteforce, m.DigestBits, blockBytes)
	rmode, err := parseMode(*mode)
	if err != nil {
		return err
	}
	summary, err := restore.Run(context.Background(), m, *penalty, r, widths, *bruteforce, *threads, rmode, *repairPath, *backupData, *backupChecksum, *restorePath)
	if err != nil {
		return err
	}
	fmt.Printf("restore: ok=%d ambiguous=%d failed=%d total=%d\n", summary.OK, summary.Ambiguous, summary.Failed, summary.Total)
	return nil
}

func parseMode(s string) (restore.Mode, error) {
	switch s {
	case "all":
		return restore.All, nil
	case "ambi_no":
		return restore.AmbiNo, nil
	case "ambi_only":
		return restore.AmbiOnly, nil
	default:
		return 0, fmt.Errorf("bitrepair: unknown restore mode %q", s)
	}
}

func runExecute(args []string) error {
	fs := flag.NewFlagSet("execute", flag.ExitOnError)
	method := fs.String("method", "md5_32", "checksum method")
	redundancy := fs.Int("redundancy", 32, "redundancy factor R")
	instructionsPath := fs.String("instructions", "", "path to the repair or restore instructions")
	dataPath := fs.String("data", "", "path to the data file to patch in place")
	fs.Parse(args)

	m, err := checksum.ByName(*method)
	if err != nil {
		return err
	}
	blockBytes := m.DigestBytes() * *redundancy
	summary, err := execute.Execute(blockBytes, *instructionsPath, *dataPath)
	if err != nil {
		return err
	}
	fmt.Printf("execute: ok=%d failed=%d total=%d\n", summary.OK, summary.Failed, summary.Total)
	return nil
}

func runDiagnose(args []string) error {
	fs := flag.NewFlagSet("diagnose", flag.ExitOnError)
	method := fs.String("method", "md5_32", "checksum method")
	redundancy := fs.Int("redundancy", 32, "redundancy factor R")
	repairPath := fs.String("repair", "", "path to the repair instructions")
	restorePath := fs.String("restore", "", "path to the restore instructions")
	origPath := fs.String("orig", "", "path to the known-original file")
	backupPath := fs.String("backup", "", "path to the backup file")
	corruptPath := fs.String("corrupt", "", "path to the pre-repair corrupted file")
	dataPath := fs.String("data", "", "path to the final data file")
	fs.Parse(args)

	m, err := checksum.ByName(*method)
	if err != nil {
		return err
	}
	blockBytes := m.DigestBytes() * *redundancy
	diag, err := execute.Diagnose(context.Background(), blockBytes, *repairPath, *restorePath, *origPath, *backupPath, *corruptPath, *dataPath)
	if err != nil {
		return err
	}
	for _, d := range diag {
		fmt.Printf("block %d: original<->corrupt=%d corrupt<->repair=%d repair<->restore=%d original<->data=%d\n",
			d.BlockIndex, d.OriginalCorrupt, d.CorruptRepair, d.RepairRestore, d.OriginalData)
	}
	fmt.Printf("diagnose: %d disagreeing block(s)\n", len(diag))
	return nil
}
