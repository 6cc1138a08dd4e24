// Package pgcopy reads and writes the binary columnar artifact format used
// for centroid, distance, and profile tables: the PostgreSQL binary COPY
// framing, written to plain files. Each file carries a fixed header, rows of
// length-prefixed big-endian fields, and a terminator.
package pgcopy

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// signature is the 11-byte magic at the start of every dump.
const signature = "PGCOPY\n\xff\r\n\x00"

// headerSize is signature + 4 flag bytes + 4 extension-length bytes.
const headerSize = 19

// trailer terminates the row stream.
const trailer uint16 = 0xFFFF

// ErrBadMagic reports a dump whose header does not match the format.
var ErrBadMagic = errors.New("pgcopy: bad magic")

// ErrBadFieldCount reports a row with an unexpected field count.
var ErrBadFieldCount = errors.New("pgcopy: unexpected field count")

// Writer frames rows into the binary COPY layout. Writes are buffered;
// Close flushes the trailer.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter starts a dump by emitting the header.
func NewWriter(w io.Writer) (*Writer, error) {
	bw := bufio.NewWriterSize(w, 1<<20)
	if _, err := bw.WriteString(signature); err != nil {
		return nil, err
	}
	var zeros [8]byte // flags + extension length
	if _, err := bw.Write(zeros[:]); err != nil {
		return nil, err
	}
	return &Writer{w: bw}, nil
}

// Row writes one record: the field count, then each field length-prefixed.
// Supported field types are uint64, int64 (written as its 8 raw bytes) and
// float32.
func (w *Writer) Row(fields ...any) error {
	if w.err != nil {
		return w.err
	}
	w.be16(uint16(len(fields)))
	for _, f := range fields {
		switch v := f.(type) {
		case uint64:
			w.be32(8)
			w.be64(v)
		case int64:
			w.be32(8)
			w.be64(uint64(v))
		case float32:
			w.be32(4)
			w.be32(math.Float32bits(v))
		default:
			w.err = fmt.Errorf("pgcopy: unsupported field type %T", f)
		}
	}
	return w.err
}

// Flush forces buffered rows out, bounding loss to one batch.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}

// Close writes the trailer and flushes.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	w.be16(trailer)
	return w.Flush()
}

func (w *Writer) be16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.write(b[:])
}

func (w *Writer) be32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.write(b[:])
}

func (w *Writer) be64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.write(b[:])
}

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

// Reader validates the header and iterates rows.
type Reader struct {
	r *bufio.Reader
}

// NewReader checks the 19-byte header and positions at the first row.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	var head [headerSize]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if string(head[:len(signature)]) != signature {
		return nil, ErrBadMagic
	}
	return &Reader{r: br}, nil
}

// Next reads the next row's field count. It returns false at the trailer and
// an error when the count does not match the expectation.
func (r *Reader) Next(fields int) (bool, error) {
	var b [2]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return false, fmt.Errorf("pgcopy: truncated row header: %w", err)
	}
	n := binary.BigEndian.Uint16(b[:])
	if n == trailer {
		return false, nil
	}
	if int(n) != fields {
		return false, fmt.Errorf("%w: got %d, want %d", ErrBadFieldCount, n, fields)
	}
	return true, nil
}

// Uint64 reads one 8-byte field.
func (r *Reader) Uint64() (uint64, error) {
	if err := r.length(8); err != nil {
		return 0, err
	}
	var b [8]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// Float32 reads one 4-byte field.
func (r *Reader) Float32() (float32, error) {
	if err := r.length(4); err != nil {
		return 0, err
	}
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b[:])), nil
}

func (r *Reader) length(want uint32) error {
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return err
	}
	if got := binary.BigEndian.Uint32(b[:]); got != want {
		return fmt.Errorf("pgcopy: field length %d, want %d", got, want)
	}
	return nil
}
