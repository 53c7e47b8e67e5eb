package sidecar

import (
	"bufio"
	"io"
)

// WriteDigest appends one block's digest (K/8 bytes) to the checksum
// sidecar body. Callers write the header once, then call WriteDigest once
// per block in ascending block order.
func WriteDigest(w io.Writer, digest []byte) error {
	_, err := w.Write(digest)
	return err
}

// DigestReader reads a checksum sidecar body (the digest sequence after
// the header) one fixed-width digest at a time.
type DigestReader struct {
	r           *bufio.Reader
	digestBytes int
}

// NewDigestReader wraps r (already positioned past the header) for
// reading digestBytes-wide digests.
func NewDigestReader(r io.Reader, digestBytes int) *DigestReader {
	return &DigestReader{r: bufio.NewReader(r), digestBytes: digestBytes}
}

// Next reads the next digest. It returns io.EOF when the body is exhausted.
func (d *DigestReader) Next() ([]byte, error) {
	buf := make([]byte, d.digestBytes)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// DigestOffset returns the byte offset of the digest for block index i
// within a checksum sidecar, for random-access reads via io.ReaderAt.
func DigestOffset(digestBytes int, index uint64) int64 {
	return int64(HeaderLen) + int64(index)*int64(digestBytes)
}

// ReadDigestAt reads the digest for block index i directly from a
// random-access checksum sidecar, without a sequential DigestReader.
func ReadDigestAt(r io.ReaderAt, digestBytes int, index uint64) ([]byte, error) {
	buf := make([]byte, digestBytes)
	if _, err := r.ReadAt(buf, DigestOffset(digestBytes, index)); err != nil {
		return nil, err
	}
	return buf, nil
}
