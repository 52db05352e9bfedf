package pakfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMissingSeparator is returned when a buffer record ends before its '.'.
var ErrMissingSeparator = errors.New("pakfile: missing '.' separator before payload")

// Reader reads whitespace-separated tokens and binary payloads from the
// same underlying stream.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r. If r is already a *bufio.Reader it is used directly
// so that no bytes are lost to a second buffer.
func NewReader(r io.Reader) *Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return &Reader{br: br}
	}
	return &Reader{br: bufio.NewReader(r)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// Token skips leading whitespace and returns the next run of
// non-whitespace bytes. The byte after the token is left unread.
func (r *Reader) Token() (string, error) {
	var c byte
	var err error
	for {
		c, err = r.br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if !isSpace(c) {
			break
		}
	}

	var sb strings.Builder
	sb.WriteByte(c)
	for {
		c, err = r.br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if isSpace(c) {
			r.br.UnreadByte()
			break
		}
		sb.WriteByte(c)
	}
	return sb.String(), nil
}

// Int reads an integer token.
func (r *Reader) Int() (int, error) {
	tok, err := r.Token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("pakfile: expected integer, got %q", tok)
	}
	return v, nil
}

// Uint32 reads a 32-bit integer token. Negative values are taken as their
// two's complement, which is how signed writers emit the high depth codes.
func (r *Reader) Uint32() (uint32, error) {
	tok, err := r.Token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil || v < -(1<<31) || v >= 1<<32 {
		return 0, fmt.Errorf("pakfile: expected 32-bit integer, got %q", tok)
	}
	return uint32(v), nil
}

// Float32 reads a floating point token.
func (r *Reader) Float32() (float32, error) {
	tok, err := r.Token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, fmt.Errorf("pakfile: expected number, got %q", tok)
	}
	return float32(v), nil
}

// Ints reads len(dst) integer tokens into dst.
func (r *Reader) Ints(dst ...*int) error {
	for _, p := range dst {
		v, err := r.Int()
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

// Float32s reads len(dst) float tokens into dst.
func (r *Reader) Float32s(dst ...*float32) error {
	for _, p := range dst {
		v, err := r.Float32()
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

// skipToSeparator consumes bytes up to and including the next '.'.
func (r *Reader) skipToSeparator() error {
	for {
		c, err := r.br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return ErrMissingSeparator
			}
			return err
		}
		if c == '.' {
			return nil
		}
	}
}

// readFull reads exactly len(p) payload bytes.
func (r *Reader) readFull(p []byte) error {
	if _, err := io.ReadFull(r.br, p); err != nil {
		return fmt.Errorf("pakfile: short payload: %w", err)
	}
	return nil
}

// Writer writes tokens and payloads, remembering the first error so that
// a long sequence of writes needs a single check at the end.
type Writer struct {
	bw  *bufio.Writer
	err error
}

// NewWriter wraps w in a buffered writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	if bw, ok := w.(*bufio.Writer); ok {
		return &Writer{bw: bw}
	}
	return &Writer{bw: bufio.NewWriter(w)}
}

// Line writes the values separated by single spaces, followed by a newline.
// float32 and float64 values use the shortest representation that reads
// back to the same value.
func (w *Writer) Line(values ...interface{}) {
	if w.err != nil {
		return
	}
	for i, v := range values {
		if i > 0 {
			w.writeString(" ")
		}
		w.writeString(formatToken(v))
	}
	w.writeString("\n")
}

func formatToken(v interface{}) string {
	switch x := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func (w *Writer) writeString(s string) {
	if w.err != nil {
		return
	}
	_, w.err = w.bw.WriteString(s)
}

// Write writes raw bytes. It implements io.Writer so a Writer can be
// handed to code expecting a plain stream.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.bw.Write(p)
	w.err = err
	return n, err
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

// Flush flushes buffered output and returns the first error encountered.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.bw.Flush()
	return w.err
}
