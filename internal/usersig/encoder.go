package usersig

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// Compression selects the framing of the DEFLATE stream.
type Compression string

const (
	// CompressionZlib wraps the DEFLATE stream in a zlib header and adler32
	// trailer. This is what the call service's decoder reads.
	CompressionZlib Compression = "zlib"

	// CompressionRaw writes a bare DEFLATE stream.
	CompressionRaw Compression = "raw"
)

func (c Compression) IsValid() bool {
	switch c {
	case CompressionZlib, CompressionRaw:
		return true
	default:
		return false
	}
}

var (
	escaper   = strings.NewReplacer("+", "*", "/", "-", "=", "_")
	unescaper = strings.NewReplacer("*", "+", "-", "/", "_", "=")
)

// Escape applies the call service's character substitution to a standard
// base64 string. Note that this is not the base64url alphabet.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape reverses Escape.
func Unescape(s string) string {
	return unescaper.Replace(s)
}

// Encoder compresses and encodes signed envelopes into credential strings.
// The zero value uses zlib framing at the default compression level.
type Encoder struct {
	Compression Compression
	Level       int
}

// NewEncoder returns an encoder with the given framing.
func NewEncoder(compression Compression) Encoder {
	return Encoder{Compression: compression, Level: flate.DefaultCompression}
}

func (e Encoder) compression() Compression {
	if e.Compression == "" {
		return CompressionZlib
	}
	return e.Compression
}

func (e Encoder) level() int {
	if e.Level == 0 {
		return flate.DefaultCompression
	}
	return e.Level
}

// Encode compresses payload, base64 encodes it with the standard alphabet and
// applies the character substitution.
func (e Encoder) Encode(payload []byte) (string, error) {
	compressed, err := e.compress(payload)
	if err != nil {
		return "", err
	}
	return Escape(base64.StdEncoding.EncodeToString(compressed)), nil
}

// EncodeEnvelope marshals and encodes env.
func (e Encoder) EncodeEnvelope(env Envelope) (string, error) {
	payload, err := env.Marshal()
	if err != nil {
		return "", err
	}
	return e.Encode(payload)
}

func (e Encoder) compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser

	switch e.compression() {
	case CompressionZlib:
		zw, err := zlib.NewWriterLevel(&buf, e.level())
		if err != nil {
			return nil, fmt.Errorf("creating zlib writer: %w", err)
		}
		w = zw
	case CompressionRaw:
		fw, err := flate.NewWriter(&buf, e.level())
		if err != nil {
			return nil, fmt.Errorf("creating flate writer: %w", err)
		}
		w = fw
	default:
		return nil, fmt.Errorf("unsupported compression %q", e.Compression)
	}

	if _, err := w.Write(payload); err != nil {
		return nil, fmt.Errorf("compressing payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flushing compressor: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode and returns the original payload bytes. Both zlib
// framed and raw DEFLATE streams are accepted.
func Decode(credential string) ([]byte, error) {
	if credential == "" {
		return nil, ErrMalformed
	}
	compressed, err := base64.StdEncoding.DecodeString(Unescape(credential))
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrMalformed, err)
	}

	var zlibErr error
	if hasZlibHeader(compressed) {
		out, err := inflateZlib(compressed)
		if err == nil {
			return out, nil
		}
		// a raw stream can start with bytes that look like a zlib header
		zlibErr = err
	}

	out, err := inflateRaw(compressed)
	if err != nil {
		if zlibErr != nil {
			err = zlibErr
		}
		return nil, fmt.Errorf("%w: inflate: %v", ErrMalformed, err)
	}
	return out, nil
}

func inflateZlib(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()
	return io.ReadAll(zr)
}

func inflateRaw(compressed []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(compressed))
	defer func() { _ = fr.Close() }()
	return io.ReadAll(fr)
}

// hasZlibHeader checks the RFC 1950 CMF/FLG pair.
func hasZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	cmf, flg := b[0], b[1]
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}
