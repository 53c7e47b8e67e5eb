package restore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/archivekeep/bitrepair/blockio"
	"github.com/archivekeep/bitrepair/calibrate"
	"github.com/archivekeep/bitrepair/checksum"
	"github.com/archivekeep/bitrepair/sidecar"
)

type bufferedDirectIO struct{}

func (bufferedDirectIO) Open(ctx context.Context, filename string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(filename, flag, perm)
}
func (bufferedDirectIO) ReadAt(ctx context.Context, f *os.File, b []byte, off int64) (int, error) {
	return f.ReadAt(b, off)
}
func (bufferedDirectIO) WriteAt(ctx context.Context, f *os.File, b []byte, off int64) (int, error) {
	return f.WriteAt(b, off)
}
func (bufferedDirectIO) Close(f *os.File) error { return f.Close() }

func init() {
	blockio.DirectIOSim = bufferedDirectIO{}
}

// TestRunRestoresFromBackupWhenDataUnresolved builds a one-block repair
// instruction file (NOHITS) carrying a corrupted block, a backup file
// whose matching block is correct, and checks Run emits a HIT!
// reconstructing it from the backup.
func TestRunRestoresFromBackupWhenDataUnresolved(t *testing.T) {
	dir := t.TempDir()
	method, err := checksum.ByName("crc32")
	if err != nil {
		t.Fatal(err)
	}
	redundancy := 8
	blockBytes := method.DigestBytes() * redundancy

	good := make([]byte, blockBytes)
	for i := range good {
		good[i] = byte(i)
	}
	cGood := method.Compute(good)

	corrupt := append([]byte(nil), good...)
	corrupt[3] ^= 0xFF // unrecoverable-by-repair corruption, still carries the real digest

	hdr := sidecar.Header{Method: method.Name, ChecksumBits: uint32(method.DigestBits), BlockBytes: uint32(blockBytes)}

	repairPath := filepath.Join(dir, "data.repair")
	if err := sidecar.WriteAtomic(repairPath, func(f *os.File) error {
		if err := sidecar.WriteHeader(f, hdr); err != nil {
			return err
		}
		return sidecar.WriteInstruction(f, sidecar.Instruction{
			Kind:       sidecar.KindNoHits,
			BlockIndex: 0,
			BlockLen:   uint64(blockBytes),
			Digest:     cGood,
			Block:      corrupt,
		})
	}); err != nil {
		t.Fatal(err)
	}

	backupDataPath := filepath.Join(dir, "backup.bin")
	if err := os.WriteFile(backupDataPath, good, 0o644); err != nil {
		t.Fatal(err)
	}
	backupChecksumPath := filepath.Join(dir, "backup.chk")
	ctx := context.Background()
	if _, err := blockio.Generate(ctx, method, redundancy, backupDataPath, backupChecksumPath); err != nil {
		t.Fatal(err)
	}

	widths := calibrate.Calibrate(0, 10000, method.DigestBits, blockBytes)
	restorePath := filepath.Join(dir, "data.restore")
	summary, err := Run(ctx, method, 1, redundancy, widths, 10000, 4, All, repairPath, backupDataPath, backupChecksumPath, restorePath)
	if err != nil {
		t.Fatal(err)
	}
	if summary.OK != 1 {
		t.Fatalf("Restore summary = %+v, want one resolved HIT!", summary)
	}

	rf, err := os.Open(restorePath)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()
	if _, err := sidecar.ReadHeader(rf); err != nil {
		t.Fatal(err)
	}
	inst, err := sidecar.ReadInstruction(rf, method.DigestBytes())
	if err != nil {
		t.Fatal(err)
	}
	if inst.Kind != sidecar.KindHitBang {
		t.Fatalf("Kind = %s, want HIT!", inst.Kind)
	}
}

func TestModeFiltersHitQuery(t *testing.T) {
	all := targetKinds(All)
	if !all[sidecar.KindHitQuery] {
		t.Error("All mode should include HIT?")
	}
	ambiNo := targetKinds(AmbiNo)
	if ambiNo[sidecar.KindHitQuery] {
		t.Error("AmbiNo mode should exclude HIT?")
	}
	ambiOnly := targetKinds(AmbiOnly)
	if len(ambiOnly) != 1 || !ambiOnly[sidecar.KindHitQuery] {
		t.Error("AmbiOnly mode should include only HIT?")
	}
}
