package mandel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCalculatePixelDataLength(t *testing.T) {
	sizes := [][2]int{{0, 0}, {0, 7}, {7, 0}, {1, 1}, {3, 5}, {65, 1}, {1, 130}, {129, 67}}
	for _, s := range sizes {
		pd := CalculatePixelData(s[0], s[1], 1, 0, 20)
		if len(pd.Pix) != s[0]*s[1] {
			t.Errorf("%dx%d: got %d pixels, want %d", s[0], s[1], len(pd.Pix), s[0]*s[1])
		}
		if pd.Width != s[0] || pd.Height != s[1] {
			t.Errorf("%dx%d: pixel data reports %dx%d", s[0], s[1], pd.Width, pd.Height)
		}
	}
}

func TestCalculatePixelDataNegativeSize(t *testing.T) {
	pd := CalculatePixelData(-4, 10, 1, 0, 20)
	if len(pd.Pix) != 0 || pd.Width != 0 {
		t.Errorf("negative width should give empty pixel data, got %dx%d with %d pixels", pd.Width, pd.Height, len(pd.Pix))
	}
}

func TestCalculatePixelDataBounds(t *testing.T) {
	const iterMax = 50
	pd := CalculatePixelData(90, 60, 1, complex(-0.5, 0), iterMax)
	for i, n := range pd.Pix {
		if int(n) > iterMax {
			t.Fatalf("pixel %d has count %d > %d", i, n, iterMax)
		}
	}
	if pd.IterationMax != iterMax {
		t.Errorf("IterationMax = %d, want %d", pd.IterationMax, iterMax)
	}
}

func TestCalculatePixelDataOrigin(t *testing.T) {
	pd := CalculatePixelData(64, 32, 1, 0, 100)
	if got := pd.At(32, 16); got != 100 {
		t.Errorf("centre pixel = %d, want 100", got)
	}
}

func TestCalculatePixelDataDeterministic(t *testing.T) {
	a := CalculatePixelData(150, 100, 0.01, complex(-0.745, 0.113), 300)
	b := CalculatePixelData(150, 100, 0.01, complex(-0.745, 0.113), 300)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel %d differs between runs: %d vs %d", i, a.Pix[i], b.Pix[i])
		}
	}
}

func TestCalculatePixelDataRowMajor(t *testing.T) {
	const w, h, iterMax = 70, 45, 80
	scale, origin := 0.8, complex(-0.6, 0.1)
	pd := CalculatePixelData(w, h, scale, origin, iterMax)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := EscapeIterations(PixelToComplex(x, y, w, h, scale, origin), iterMax)
			if got := int(pd.Pix[y*w+x]); got != want {
				t.Fatalf("pixel (%d, %d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestGeneratorWorkersAgree(t *testing.T) {
	p := Params{Width: 200, Height: 130, Scale: 0.5, Origin: complex(-0.7, 0.2), IterationMax: 200}
	ref, err := (&Generator{Workers: 1, TileSize: 1000}).Generate(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range []*Generator{
		{Workers: 2, TileSize: 7},
		{Workers: 8, TileSize: 64},
		{Workers: 3, TileSize: 1},
	} {
		pd, err := g.Generate(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		for i := range ref.Pix {
			if ref.Pix[i] != pd.Pix[i] {
				t.Fatalf("workers=%d tile=%d: pixel %d = %d, want %d", g.Workers, g.TileSize, i, pd.Pix[i], ref.Pix[i])
			}
		}
	}
}

func TestGeneratorOnTile(t *testing.T) {
	const w, h, tileSize = 100, 70, 32
	var (
		calls atomic.Int32
		mu    sync.Mutex
		area  int
	)
	g := &Generator{TileSize: tileSize, OnTile: func(tile image.Rectangle) {
		calls.Add(1)
		mu.Lock()
		area += tile.Dx() * tile.Dy()
		mu.Unlock()
	}}
	if _, err := g.Generate(context.Background(), Params{Width: w, Height: h, Scale: 1, IterationMax: 10}); err != nil {
		t.Fatal(err)
	}
	if got, want := int(calls.Load()), TileCount(w, h, tileSize); got != want {
		t.Errorf("OnTile called %d times, want %d", got, want)
	}
	if area != w*h {
		t.Errorf("tiles cover %d pixels, want %d", area, w*h)
	}
}

func TestGeneratorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Generator{}).Generate(ctx, Params{Width: 50, Height: 50, Scale: 1, IterationMax: 10})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestGenerateClampsIterationMax(t *testing.T) {
	if got := clampIterations(MaxIterations + 1); got != MaxIterations {
		t.Errorf("clampIterations(MaxIterations+1) = %d", got)
	}
	if got := clampIterations(-7); got != 0 {
		t.Errorf("clampIterations(-7) = %d", got)
	}

	// a point far outside escapes at once, so the huge cap costs nothing
	pd := CalculatePixelData(1, 1, 1, complex(10, 10), MaxIterations+1)
	if pd.IterationMax != MaxIterations {
		t.Fatalf("IterationMax = %d, want %d", pd.IterationMax, MaxIterations)
	}
	if got := pd.At(0, 0); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}

	// the largest count a pixel holds is still coloured as inside
	inside := Pixel(MaxIterations)
	if got := DefaultPalette.Color(int(inside), pd.IterationMax); got != Inside {
		t.Errorf("colour of a capped pixel = %v, want %v", got, Inside)
	}

	empty := CalculatePixelData(0, 0, 1, 0, MaxIterations*2)
	if empty.IterationMax != MaxIterations {
		t.Errorf("empty render IterationMax = %d, want %d", empty.IterationMax, MaxIterations)
	}
}

func TestSplitRectNoClip(t *testing.T) {
	tiles := splitRectNoClip(image.Rect(0, 0, 10, 5), 4, 4)
	want := []image.Rectangle{
		image.Rect(0, 0, 4, 4), image.Rect(4, 0, 8, 4), image.Rect(8, 0, 10, 4),
		image.Rect(0, 4, 4, 5), image.Rect(4, 4, 8, 5), image.Rect(8, 4, 10, 5),
	}
	if len(tiles) != len(want) {
		t.Fatalf("got %d tiles, want %d", len(tiles), len(want))
	}
	for i := range want {
		if tiles[i] != want[i] {
			t.Errorf("tile %d = %v, want %v", i, tiles[i], want[i])
		}
	}
	if n := TileCount(10, 5, 4); n != len(want) {
		t.Errorf("TileCount = %d, want %d", n, len(want))
	}
}

func BenchmarkGenerate(b *testing.B) {
	p := Params{Width: 320, Height: 240, Scale: 1, Origin: complex(-0.5, 0), IterationMax: 500}
	for workers := 1; workers <= runtime.GOMAXPROCS(0); workers *= 2 {
		b.Run(fmt.Sprintf("%dx%dx%d-%d", p.Width, p.Height, p.IterationMax, workers), func(b *testing.B) {
			g := &Generator{Workers: workers}
			for i := 0; i < b.N; i++ {
				if _, err := g.Generate(context.Background(), p); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
