package core

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// LoadFloats reads a flat big-endian float32 buffer from disk. zstd
// compressed files are detected by their frame magic.
func LoadFloats(filename string) ([]float32, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	values, err := DecodeFloats(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return values, nil
}

// DecodeFloats parses an in-memory buffer, decompressing it first if it is
// a zstd frame
func DecodeFloats(data []byte) ([]float32, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		raw, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		data = raw
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("buffer length %d is not a multiple of 4", len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// EncodeFloats is the inverse of DecodeFloats. When compress is set the
// result is a single zstd frame.
func EncodeFloats(values []float32, compress bool) ([]byte, error) {
	raw := make([]byte, len(values)*4)
	for i, v := range values {
		binary.BigEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	if !compress {
		return raw, nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encode: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// LoadScalarField loads one scalar component and checks it against dims
func LoadScalarField(dims Dims, filename string) (*ScalarField, error) {
	values, err := loadSized(dims, filename)
	if err != nil {
		return nil, err
	}
	return NewScalarField(dims, values), nil
}

// LoadVectorField loads the three wind components concurrently and checks
// them against dims
func LoadVectorField(dims Dims, uFile, vFile, wFile string) (*VectorField, error) {
	var u, v, w []float32
	var g errgroup.Group
	g.Go(func() (err error) {
		u, err = loadSized(dims, uFile)
		return err
	})
	g.Go(func() (err error) {
		v, err = loadSized(dims, vFile)
		return err
	})
	g.Go(func() (err error) {
		w, err = loadSized(dims, wFile)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewVectorField(dims, u, v, w), nil
}

func loadSized(dims Dims, filename string) ([]float32, error) {
	values, err := LoadFloats(filename)
	if err != nil {
		return nil, err
	}
	if len(values) != dims.Len() {
		return nil, fmt.Errorf("%s: %d samples, grid %s needs %d", filename, len(values), dims, dims.Len())
	}
	return values, nil
}

// Fingerprint hashes a sample buffer so different data sets never share
// cached results
func Fingerprint(values ...[]float32) uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 4096*4)
	for _, vals := range values {
		for _, v := range vals {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
			if len(buf) == cap(buf) {
				_, _ = d.Write(buf)
				buf = buf[:0]
			}
		}
	}
	_, _ = d.Write(buf)
	return d.Sum64()
}
