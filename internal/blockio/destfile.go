package blockio

import (
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/rs/zerolog/log"
)

// ReadFullAt reads up to len(buf) bytes from f at off, retrying on
// interrupted system calls. It returns the number of bytes actually
// read, which is less than len(buf) only at EOF; io.EOF itself is not
// reported as an error, matching io.ReadFull's ErrUnexpectedEOF-free
// short-read-at-EOF contract that callers (the gap scanner, the fill
// executor) rely on to distinguish "short chunk" from "real I/O error".
func ReadFullAt(f *os.File, buf []byte, off int64) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.ReadAt(buf[total:], off+int64(total))
		total += n
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				log.Debug().Msg("ReadFullAt: interrupted, retrying")
				continue
			}
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
	}
	return total, nil
}

// WriteFullAt writes all of buf to f at off, looping until every byte is
// written and retrying on interrupted system calls.
func WriteFullAt(f *os.File, buf []byte, off int64) error {
	total := 0
	for total < len(buf) {
		n, err := f.WriteAt(buf[total:], off+int64(total))
		total += n
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				log.Debug().Msg("WriteFullAt: interrupted, retrying")
				continue
			}
			return err
		}
	}
	return nil
}

// OpenDestination opens path for gap-fill-style read/write access: if it
// exists it is opened without truncation (so existing sectors survive
// until explicitly overwritten), otherwise it is created.
func OpenDestination(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if errors.Is(err, os.ErrNotExist) {
		return os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	}
	return f, err
}
