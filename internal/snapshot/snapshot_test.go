package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/zstd"

	mandel "github.com/marben/mandelbrot"
)

func TestRoundTrip(t *testing.T) {
	pd := mandel.CalculatePixelData(61, 37, 0.7, complex(-0.6, 0.2), 120)

	var buf bytes.Buffer
	if err := Write(&buf, pd); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Width != pd.Width || got.Height != pd.Height || got.IterationMax != pd.IterationMax || got.Elapsed != pd.Elapsed {
		t.Fatalf("header mismatch: got %dx%d max %d %v, want %dx%d max %d %v",
			got.Width, got.Height, got.IterationMax, got.Elapsed, pd.Width, pd.Height, pd.IterationMax, pd.Elapsed)
	}
	for i := range pd.Pix {
		if got.Pix[i] != pd.Pix[i] {
			t.Fatalf("pixel %d = %d, want %d", i, got.Pix[i], pd.Pix[i])
		}
	}
}

func TestSaveLoad(t *testing.T) {
	pd := mandel.CalculatePixelData(20, 10, 1, 0, 30)
	path := filepath.Join(t.TempDir(), "snap", "a.mbpx")
	if err := Save(path, pd); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Pix) != len(pd.Pix) {
		t.Fatalf("got %d pixels, want %d", len(got.Pix), len(pd.Pix))
	}
}

func TestEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, mandel.PixelData{}); err != nil {
		t.Fatal(err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Pix) != 0 {
		t.Errorf("got %d pixels", len(got.Pix))
	}
}

func TestWriteLengthMismatch(t *testing.T) {
	err := Write(&bytes.Buffer{}, mandel.PixelData{Width: 3, Height: 3, Pix: make([]mandel.Pixel, 4)})
	if !errors.Is(err, mandel.ErrLengthMismatch) {
		t.Errorf("got %v, want ErrLengthMismatch", err)
	}
}

func compressed(t *testing.T, raw []byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestReadRejects(t *testing.T) {
	good := func() []byte {
		var buf bytes.Buffer
		pd := mandel.PixelData{Width: 2, Height: 1, IterationMax: 5, Pix: []mandel.Pixel{1, 5}}
		if err := Write(&buf, pd); err != nil {
			t.Fatal(err)
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			t.Fatal(err)
		}
		defer dec.Close()
		raw, err := dec.DecodeAll(buf.Bytes(), nil)
		if err != nil {
			t.Fatal(err)
		}
		return raw
	}

	tests := []struct {
		name   string
		mangle func([]byte) []byte
	}{
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"bad version", func(b []byte) []byte { b[4] = 9; return b }},
		{"truncated", func(b []byte) []byte { return b[:len(b)-2] }},
		// last pixel raised above the iteration max
		{"count above max", func(b []byte) []byte { b[len(b)-4] = 6; return b }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(compressed(t, tt.mangle(good())))
			if !errors.Is(err, ErrFormat) {
				t.Errorf("got %v, want ErrFormat", err)
			}
		})
	}
}

func TestReadHugeHeaderWithoutPixels(t *testing.T) {
	h := header{Version: version, Width: 20000, Height: 20000, IterationMax: 100}
	copy(h.Magic[:], magic)
	var raw bytes.Buffer
	if err := binary.Write(&raw, binary.LittleEndian, h); err != nil {
		t.Fatal(err)
	}
	stream := compressed(t, raw.Bytes())

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := Read(stream)
	runtime.ReadMemStats(&after)

	if !errors.Is(err, ErrFormat) {
		t.Fatalf("got %v, want ErrFormat", err)
	}
	// the declared image would need 1.6 GB
	if allocated := after.TotalAlloc - before.TotalAlloc; allocated > 64<<20 {
		t.Errorf("reading a header-only stream allocated %d MiB", allocated>>20)
	}
}

func TestReadNotZstd(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("definitely not zstd"))); err == nil {
		t.Error("expected an error")
	}
}
