// Package pakfile implements the text/binary hybrid container used for
// detector model files.
//
// A model file is a sequence of whitespace-separated text tokens
// (labels, integers, floats) interleaved with binary buffer records. A
// buffer record looks like
//
//	0 <count>\n.<raw bytes>
//	1 <compressed bytes> <count>\n.<zlib bytes>
//
// The leading flag says whether the payload is compressed. Payloads of
// 1024 bytes or more are always compressed; smaller ones never are. The
// '.' separator is scanned for before the payload, so readers tolerate any
// whitespace after the numeric header.
//
// Image records prefix a buffer record with the image geometry:
//
//	<width> <height> <depth> <channels> <stride> <size>\n<buffer record>
//
// # Concurrency
//
// Every call allocates its own compression scratch space. Reader and
// Writer values are not safe for concurrent use, but distinct values can
// be used from different goroutines.
//
// # Decompression failures
//
// ReadBuffer does not report zlib errors. A corrupt compressed payload is
// logged at debug severity and the returned slice holds whatever was
// inflated before the failure, zero-filled to the recorded length.
package pakfile
