package pakfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ironsheep/planar-detector/internal/logging"
)

var logger = logging.New("pakfile")

// CompressionThreshold is the payload size in bytes from which buffer
// records are compressed.
const CompressionThreshold = 1 << 10

const (
	flagRaw        = 0
	flagCompressed = 1
)

// Element is the set of fixed-size types a buffer record can hold. Values
// are stored little-endian.
type Element interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

func elementSize[T Element]() int {
	var zero T
	return binary.Size(zero)
}

func encode[T Element](data []T) []byte {
	if b, ok := any(data).([]byte); ok {
		return b
	}
	var buf bytes.Buffer
	buf.Grow(len(data) * elementSize[T]())
	// bytes.Buffer writes cannot fail
	binary.Write(&buf, binary.LittleEndian, data)
	return buf.Bytes()
}

func decode[T Element](raw []byte, count int) []T {
	out := make([]T, count)
	if b, ok := any(out).([]byte); ok {
		copy(b, raw)
		return out
	}
	binary.Read(bytes.NewReader(raw), binary.LittleEndian, out)
	return out
}

// WriteBuffer writes data as one buffer record. Payloads smaller than
// CompressionThreshold bytes are stored raw, larger ones zlib-compressed.
func WriteBuffer[T Element](w *Writer, data []T) error {
	raw := encode(data)

	if len(raw) < CompressionThreshold {
		w.Line(flagRaw, len(data))
		w.Write([]byte{'.'})
		w.Write(raw)
		return w.Err()
	}

	logger.Debugf("writing compressed buffer of %d bytes", len(raw))

	var scratch bytes.Buffer
	zw := zlib.NewWriter(&scratch)
	if _, err := zw.Write(raw); err != nil {
		return fmt.Errorf("pakfile: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("pakfile: compress: %w", err)
	}

	logger.Debugf("compression ratio = %g", float64(len(raw))/float64(scratch.Len()))

	w.Line(flagCompressed, scratch.Len(), len(data))
	w.Write([]byte{'.'})
	w.Write(scratch.Bytes())
	return w.Err()
}

// ReadBuffer reads one buffer record written by WriteBuffer with the same
// element type.
//
// Header and I/O errors are returned. A compressed payload that fails to
// inflate is only logged; see the package documentation.
func ReadBuffer[T Element](r *Reader) ([]T, error) {
	flag, err := r.Int()
	if err != nil {
		return nil, fmt.Errorf("pakfile: buffer flag: %w", err)
	}

	size := elementSize[T]()

	switch flag {
	case flagRaw:
		count, err := r.Int()
		if err != nil {
			return nil, fmt.Errorf("pakfile: buffer length: %w", err)
		}
		if count < 0 {
			return nil, fmt.Errorf("pakfile: negative buffer length %d", count)
		}
		if err := r.skipToSeparator(); err != nil {
			return nil, err
		}
		raw := make([]byte, count*size)
		if err := r.readFull(raw); err != nil {
			return nil, err
		}
		return decode[T](raw, count), nil

	case flagCompressed:
		var compressedLen, count int
		if err := r.Ints(&compressedLen, &count); err != nil {
			return nil, fmt.Errorf("pakfile: compressed buffer header: %w", err)
		}
		if compressedLen < 0 || count < 0 {
			return nil, fmt.Errorf("pakfile: negative compressed buffer header %d %d", compressedLen, count)
		}

		logger.Debugf("reading compressed buffer of %d bytes", compressedLen)

		if err := r.skipToSeparator(); err != nil {
			return nil, err
		}
		scratch := make([]byte, compressedLen)
		if err := r.readFull(scratch); err != nil {
			return nil, err
		}

		out := make([]byte, count*size)
		inflate(scratch, out)
		return decode[T](out, count), nil
	}

	return nil, fmt.Errorf("pakfile: unknown buffer flag %d", flag)
}

// inflate decompresses src into dst. Failures are logged, not returned.
func inflate(src, dst []byte) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		logger.Debugf("zlib error = %v", err)
		return
	}
	defer zr.Close()

	if _, err := io.ReadFull(zr, dst); err != nil {
		logger.Debugf("zlib error = %v", err)
	}
}
