package blockio

import (
	"context"
	"os"
)

// BlockCount returns ceil(size/blockBytes), the number of blocks a file of
// size bytes is partitioned into.
func BlockCount(size int64, blockBytes int) int64 {
	if blockBytes <= 0 {
		return 0
	}
	n := size / int64(blockBytes)
	if size%int64(blockBytes) != 0 {
		n++
	}
	return n
}

// BlockLen returns the length of block index i in a file of the given
// size: blockBytes for every block except a possible final short block.
func BlockLen(size int64, blockBytes int, index int64) int {
	start := index * int64(blockBytes)
	remaining := size - start
	if remaining < int64(blockBytes) {
		return int(remaining)
	}
	return blockBytes
}

// Scanner reads a data file sequentially in blockBytes-sized blocks (the
// final block may be short), for use by generate, verify, repair, and
// restore.
type Scanner struct {
	dio        DirectIO
	file       *os.File
	size       int64
	blockBytes int
}

// OpenScanner opens path read-only and prepares it for block-wise scanning.
func OpenScanner(ctx context.Context, dio DirectIO, path string, blockBytes int) (*Scanner, error) {
	f, err := dio.Open(ctx, path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		dio.Close(f)
		return nil, err
	}
	return &Scanner{dio: dio, file: f, size: st.Size(), blockBytes: blockBytes}, nil
}

// Size returns the underlying file's size in bytes.
func (s *Scanner) Size() int64 { return s.size }

// BlockCount returns the number of blocks in the scanned file.
func (s *Scanner) BlockCount() int64 {
	return BlockCount(s.size, s.blockBytes)
}

// ReadBlock reads block index i (0-based) and returns it, with its actual
// length (short for the final block).
func (s *Scanner) ReadBlock(ctx context.Context, index int64) ([]byte, error) {
	n := BlockLen(s.size, s.blockBytes, index)
	buf := AlignedBlock(s.blockBytes)[:n]
	if _, err := s.dio.ReadAt(ctx, s.file, buf, index*int64(s.blockBytes)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close releases the scanner's file handle.
func (s *Scanner) Close() error {
	return s.dio.Close(s.file)
}
