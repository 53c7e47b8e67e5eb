package blockio

import (
	"context"
	"os"
)

// bufferedDirectIO is a test substitute for the real O_DIRECT-backed
// DirectIO: plain buffered file I/O, so tests can use arbitrary block
// sizes without sector alignment, modeled on the teacher's directIOShim.
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

func (bufferedDirectIO) Close(f *os.File) error {
	return f.Close()
}

func init() {
	DirectIOSim = bufferedDirectIO{}
}
