package blockio

import "errors"

// ErrReadFailed wraps an unrecoverable read error reported by a Reader.
// The core treats any non-nil error from ReadBlocks as a failed read of
// that chunk.
var ErrReadFailed = errors.New("blockio: read failed")

// Reader is the lower-level sector reader the core consumes. Opening the
// disc, decryption and device access are the reader's concern, not the
// core's; the core only ever asks for at most MaxChunkBlocks blocks at a
// time.
//
// ReadBlocks reads count blocks starting at logical block lba into buf
// (which must be at least count*BlockSize bytes) and returns the number
// of blocks actually read. A return of n < count with a nil error is a
// partial read; n == 0 with a nil error signals end of data; a non-nil
// error signals an unrecoverable read error at lba.
type Reader interface {
	ReadBlocks(lba, count uint32, buf []byte) (int, error)
}
