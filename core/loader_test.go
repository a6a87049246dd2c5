package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestEncodeDecodeFloats(t *testing.T) {
	values := []float32{0, -78.5, 30.25, 1e-3, -0}

	for _, compress := range []bool{false, true} {
		data, err := EncodeFloats(values, compress)
		if err != nil {
			t.Fatal(err)
		}
		got, err := DecodeFloats(data)
		if err != nil {
			t.Fatalf("compress=%v: %v", compress, err)
		}
		if len(got) != len(values) {
			t.Fatalf("compress=%v: %d values, want %d", compress, len(got), len(values))
		}
		for i := range values {
			if got[i] != values[i] {
				t.Errorf("compress=%v: value %d = %v, want %v", compress, i, got[i], values[i])
			}
		}
	}
}

func TestDecodeFloatsBigEndian(t *testing.T) {
	// 1.0 is 0x3f800000
	got, err := DecodeFloats([]byte{0x3f, 0x80, 0x00, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("got %v, want [1]", got)
	}
}

func TestDecodeFloatsRejectsTruncated(t *testing.T) {
	if _, err := DecodeFloats([]byte{1, 2, 3}); err == nil {
		t.Error("3-byte buffer decoded without error")
	}
}

func writeField(t *testing.T, dir, name string, values []float32, compress bool) string {
	t.Helper()
	data, err := EncodeFloats(values, compress)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFieldsRawAndCompressedAgree(t *testing.T) {
	dir := t.TempDir()
	dims := Dims{X: 3, Y: 2, Z: 2}
	values := make([]float32, dims.Len())
	for i := range values {
		values[i] = float32(i) * 1.5
	}

	raw, err := LoadScalarField(dims, writeField(t, dir, "t.bin", values, false))
	if err != nil {
		t.Fatal(err)
	}
	zst, err := LoadScalarField(dims, writeField(t, dir, "t.bin.zst", values, true))
	if err != nil {
		t.Fatal(err)
	}
	if Fingerprint(raw.Values) != Fingerprint(zst.Values) {
		t.Error("raw and zstd buffers decode differently")
	}

	u := writeField(t, dir, "u.bin", values, false)
	wind, err := LoadVectorField(dims, u, u, u)
	if err != nil {
		t.Fatal(err)
	}
	if wind.At(2, 1, 1) != (mgl64.Vec3{16.5, 16.5, 16.5}) {
		t.Errorf("wind sample = %v", wind.At(2, 1, 1))
	}
}

func TestLoadFieldErrors(t *testing.T) {
	dir := t.TempDir()
	short := writeField(t, dir, "short.bin", []float32{1, 2, 3}, false)

	if _, err := LoadScalarField(Dims{X: 2, Y: 2, Z: 2}, short); err == nil || !strings.Contains(err.Error(), "needs 8") {
		t.Errorf("size mismatch err = %v", err)
	}
	if _, err := LoadVectorField(Dims{X: 3, Y: 1, Z: 1}, short, short, filepath.Join(dir, "missing.bin")); err == nil {
		t.Error("missing component loaded without error")
	}
}

func TestFingerprint(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{1, 2, 4}
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("different buffers share a fingerprint")
	}
	if Fingerprint(a) != Fingerprint([]float32{1, 2, 3}) {
		t.Error("fingerprint is not stable")
	}

	big := make([]float32, 10000)
	for i := range big {
		big[i] = float32(i)
	}
	before := Fingerprint(big)
	big[9999] = -1
	if Fingerprint(big) == before {
		t.Error("change past the first buffered block was not hashed")
	}
}
