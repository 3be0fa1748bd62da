// Package server renders images on request over HTTP and websocket.
package server

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/mandelbrot"
)

// Limits bound the work a single request may ask for.
type Limits struct {
	MaxPixels     int
	MaxIterations int
}

// DefaultLimits allow a 4K image at a deep iteration count.
var DefaultLimits = Limits{
	MaxPixels:     3840 * 2160,
	MaxIterations: 1_000_000,
}

// Server renders Mandelbrot images for HTTP and websocket clients.
type Server struct {
	// Workers and TileSize configure the generator used for each request.
	Workers  int
	TileSize int
	Limits   Limits
	// Static, if set, is a directory served at /.
	Static string
	// OriginPatterns lists the hosts allowed to open a websocket from a
	// browser. Empty means same origin only.
	OriginPatterns []string
}

// Handler routes /render.png, /ws and the static directory.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /render.png", s.renderPNG)
	mux.HandleFunc("/ws", s.websocketHandler)
	if s.Static != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.Static)))
	}
	return mux
}

func (s *Server) generator(onTile func(image.Rectangle)) *mandel.Generator {
	return &mandel.Generator{Workers: s.Workers, TileSize: s.TileSize, OnTile: onTile}
}

// renderPNG answers a query-string request with a PNG.
func (s *Server) renderPNG(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, pal, err := req.params(s.Limits)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pd, err := s.generator(nil).Generate(r.Context(), p)
	if err != nil {
		log.Printf("render %dx%d: %v", p.Width, p.Height, err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	buf, err := encodePNG(pd, pal)
	if err != nil {
		log.Printf("encode %dx%d: %v", p.Width, p.Height, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("rendered %dx%d (%d iterations) in %s", pd.Width, pd.Height, pd.IterationMax, pd.Elapsed)

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(buf); err != nil {
		log.Printf("write response: %v", err)
	}
}

func encodePNG(pd mandel.PixelData, pal mandel.Palette) ([]byte, error) {
	img, err := pd.RGBImage(pal)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// websocketHandler serves render requests on one websocket until the
// client goes away.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.OriginPatterns,
	})
	if err != nil {
		log.Println(err)
		return
	}
	defer c.CloseNow()

	log.Printf("websocket connection from: %s", r.RemoteAddr)
	ctx := r.Context()
	for {
		var req Request
		if err := wsjson.Read(ctx, c, &req); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, context.Canceled) {
				log.Printf("websocket read from %s: %v", r.RemoteAddr, err)
			}
			return
		}
		if err := s.serveRequest(ctx, c, req); err != nil {
			log.Printf("websocket %s: %v", r.RemoteAddr, err)
			return
		}
	}
}

// serveRequest renders req, streaming progress, then the result and image.
// Only connection failures are returned; render errors go to the client.
func (s *Server) serveRequest(ctx context.Context, c *websocket.Conn, req Request) error {
	p, pal, err := req.params(s.Limits)
	if err != nil {
		return wsjson.Write(ctx, c, Result{Type: "result", Error: err.Error()})
	}

	total := mandel.TileCount(p.Width, p.Height, s.TileSize)
	var done atomic.Int32
	tick := make(chan struct{}, 1)
	onTile := func(image.Rectangle) {
		done.Add(1)
		select {
		case tick <- struct{}{}:
		default:
		}
	}

	// progress is written from one goroutine so messages stay ordered
	var (
		wg       sync.WaitGroup
		writeErr error
		sent     int
	)
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-tick:
				n := int(done.Load())
				if err := wsjson.Write(ctx, c, Progress{Type: "progress", TilesDone: n, TilesTotal: total}); err != nil {
					writeErr = err
					return
				}
				sent = n
			case <-stop:
				return
			}
		}
	}()

	pd, err := s.generator(onTile).Generate(ctx, p)
	close(stop)
	wg.Wait()
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		return wsjson.Write(ctx, c, Result{Type: "result", Error: err.Error()})
	}
	// the last tick can lose the race with stop; clients always see the full count
	if sent != total {
		if err := wsjson.Write(ctx, c, Progress{Type: "progress", TilesDone: total, TilesTotal: total}); err != nil {
			return err
		}
	}

	buf, err := encodePNG(pd, pal)
	if err != nil {
		return wsjson.Write(ctx, c, Result{Type: "result", Error: err.Error()})
	}
	res := Result{
		Type:         "result",
		Width:        pd.Width,
		Height:       pd.Height,
		IterationMax: pd.IterationMax,
		ElapsedMs:    float64(pd.Elapsed.Microseconds()) / 1000,
	}
	if err := wsjson.Write(ctx, c, res); err != nil {
		return err
	}
	return c.Write(ctx, websocket.MessageBinary, buf)
}
