// server renders Mandelbrot images for HTTP and websocket clients.
//
//	GET /render.png?width=800&height=600&iter=2000&region=seahorse&palette=fire
//	GET /ws    (JSON requests in, progress + result + PNG out)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/marben/mandelbrot/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	var (
		addr      = flag.String("addr", ":8080", "listen address")
		static    = flag.String("static", "", "directory served at /")
		workers   = flag.Int("workers", 0, "goroutines per render, 0 for all CPUs")
		tileSize  = flag.Int("tile", 0, "tile edge in pixels, 0 for the default")
		maxPixels = flag.Int("max-pixels", server.DefaultLimits.MaxPixels, "largest image a request may ask for")
		maxIter   = flag.Int("max-iter", server.DefaultLimits.MaxIterations, "largest iteration count a request may ask for")
		origins   = flag.String("origins", "", "comma separated origin patterns allowed to open a websocket")
	)
	flag.Parse()

	s := &server.Server{
		Workers:  *workers,
		TileSize: *tileSize,
		Limits:   server.Limits{MaxPixels: *maxPixels, MaxIterations: *maxIter},
		Static:   *static,
	}
	if *origins != "" {
		s.OriginPatterns = strings.Split(*origins, ",")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Printf("listening on http://localhost%s", *addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("httpServer: %w", err)
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
