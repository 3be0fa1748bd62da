// Package snapshot stores rendered iteration counts so an image can be
// recoloured or re-exported later without recomputing it.
//
// A snapshot is a zstd stream holding a fixed header followed by the
// pixels, all little endian:
//
//	magic "MBPX" | version u8 | width u32 | height u32 | iteration max u32 | elapsed ns i64 | pixels u32...
package snapshot

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	mandel "github.com/marben/mandelbrot"
)

const (
	magic   = "MBPX"
	version = 1
)

// ErrFormat is returned for data that is not a valid snapshot.
var ErrFormat = errors.New("not a pixel snapshot")

type header struct {
	Magic        [4]byte
	Version      uint8
	Width        uint32
	Height       uint32
	IterationMax uint32
	Elapsed      int64
}

// Write compresses pd to w.
func Write(w io.Writer, pd mandel.PixelData) error {
	if len(pd.Pix) != pd.Width*pd.Height {
		return fmt.Errorf("%w: %d pixels for %dx%d", mandel.ErrLengthMismatch, len(pd.Pix), pd.Width, pd.Height)
	}
	if pd.Width > math.MaxUint32 || pd.Height > math.MaxUint32 || pd.IterationMax < 0 || pd.IterationMax > math.MaxUint32 {
		return fmt.Errorf("pixel data %dx%d max %d does not fit a snapshot", pd.Width, pd.Height, pd.IterationMax)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("zstd.NewWriter: %w", err)
	}
	bw := bufio.NewWriter(enc)

	h := header{
		Version:      version,
		Width:        uint32(pd.Width),
		Height:       uint32(pd.Height),
		IterationMax: uint32(pd.IterationMax),
		Elapsed:      int64(pd.Elapsed),
	}
	copy(h.Magic[:], magic)
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		enc.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, pd.Pix); err != nil {
		enc.Close()
		return fmt.Errorf("write pixels: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("zstd close: %w", err)
	}
	return nil
}

// Read decompresses a snapshot written by Write.
func Read(r io.Reader) (mandel.PixelData, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return mandel.PixelData{}, fmt.Errorf("zstd.NewReader: %w", err)
	}
	defer dec.Close()
	br := bufio.NewReader(dec)

	var h header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return mandel.PixelData{}, fmt.Errorf("%w: header: %w", ErrFormat, err)
	}
	if string(h.Magic[:]) != magic {
		return mandel.PixelData{}, fmt.Errorf("%w: bad magic %q", ErrFormat, h.Magic[:])
	}
	if h.Version != version {
		return mandel.PixelData{}, fmt.Errorf("%w: unsupported version %d", ErrFormat, h.Version)
	}

	n := uint64(h.Width) * uint64(h.Height)
	if n > math.MaxInt32 {
		return mandel.PixelData{}, fmt.Errorf("%w: image %dx%d too large", ErrFormat, h.Width, h.Height)
	}
	pix, err := readPixels(br, n, h.IterationMax)
	if err != nil {
		return mandel.PixelData{}, err
	}
	pd := mandel.PixelData{
		Width:        int(h.Width),
		Height:       int(h.Height),
		IterationMax: int(h.IterationMax),
		Elapsed:      time.Duration(h.Elapsed),
		Pix:          pix,
	}
	return pd, nil
}

// readChunk is the number of pixels decoded per read. The pixel slice only
// grows as data arrives, so a header claiming a huge image cannot force a
// huge allocation.
const readChunk = 1 << 16

func readPixels(r io.Reader, n uint64, iterationMax uint32) ([]mandel.Pixel, error) {
	pix := make([]mandel.Pixel, 0, min(n, readChunk))
	buf := make([]byte, 4*readChunk)
	for uint64(len(pix)) < n {
		k := min(n-uint64(len(pix)), readChunk)
		b := buf[:4*k]
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("%w: pixels: %w", ErrFormat, err)
		}
		for i := uint64(0); i < k; i++ {
			p := binary.LittleEndian.Uint32(b[4*i:])
			if p > iterationMax {
				return nil, fmt.Errorf("%w: pixel %d count %d above max %d", ErrFormat, len(pix), p, iterationMax)
			}
			pix = append(pix, mandel.Pixel(p))
		}
	}
	return pix, nil
}

// Save writes pd to a file at path, creating its directory if needed.
func Save(path string, pd mandel.PixelData) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return Write(f, pd)
}

// Load reads the snapshot file at path.
func Load(path string) (mandel.PixelData, error) {
	f, err := os.Open(path)
	if err != nil {
		return mandel.PixelData{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	pd, err := Read(f)
	if err != nil {
		return mandel.PixelData{}, fmt.Errorf("%s: %w", path, err)
	}
	return pd, nil
}
