package blockio

import (
	"fmt"
	"os"
)

// FileReader is the concrete, non-test Reader: a disc image or block
// device opened read-only and addressed positionally in DVD's 2048-byte
// logical block units. Decryption, if the source ever needs it, belongs
// in front of this type, not inside it -- FileReader only ever does
// positional reads.
type FileReader struct {
	f *os.File
}

// OpenFileReader opens path (an ISO image or block device) read-only.
func OpenFileReader(path string) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileReader{f: f}, nil
}

// Close releases the underlying file descriptor.
func (r *FileReader) Close() error {
	return r.f.Close()
}

// ReadBlocks implements Reader by reading count blocks starting at lba
// from the underlying image, tolerating a short final read at EOF the
// same way ReadFullAt does.
func (r *FileReader) ReadBlocks(lba, count uint32, buf []byte) (int, error) {
	n, err := ReadFullAt(r.f, buf[:count*BlockSize], int64(lba)*BlockSize)
	if err != nil {
		return 0, fmt.Errorf("%w at block %d: %w", ErrReadFailed, lba, err)
	}
	return n / BlockSize, nil
}
