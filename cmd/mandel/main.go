// mandel renders a Mandelbrot image from the command line and saves it.
// It can also store the raw iteration counts as a snapshot and recolour a
// stored snapshot without recomputing it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/profile"

	mandel "github.com/marben/mandelbrot"
	"github.com/marben/mandelbrot/internal/session"
	"github.com/marben/mandelbrot/internal/snapshot"
)

type config struct {
	params      mandel.Params
	region      string
	palette     string
	output      string
	workers     int
	thumb       int
	snapshotOut string
	snapshotIn  string
	profileMode string
	profileDir  string
}

func parseFlags(args []string) (config, error) {
	def := mandel.DefaultParams()
	var (
		cfg    config
		re, im float64
	)
	fs := flag.NewFlagSet("mandel", flag.ContinueOnError)
	fs.IntVar(&cfg.params.Width, "width", def.Width, "width of the output image in pixels")
	fs.IntVar(&cfg.params.Height, "height", def.Height, "height of the output image in pixels")
	fs.Float64Var(&cfg.params.Scale, "scale", def.Scale, "plane distance multiplier, larger zooms out")
	fs.Float64Var(&re, "re", real(def.Origin), "real part of the image centre")
	fs.Float64Var(&im, "im", imag(def.Origin), "imaginary part of the image centre")
	fs.IntVar(&cfg.params.IterationMax, "iter", def.IterationMax, "maximum iterations per pixel")
	fs.StringVar(&cfg.region, "region", "", "named landmark, overrides -scale, -re and -im: "+strings.Join(mandel.RegionNames(), ", "))
	fs.StringVar(&cfg.palette, "palette", "gradient", "palette: "+strings.Join(mandel.PaletteNames(), ", "))
	fs.StringVar(&cfg.output, "o", session.DefaultSavePath, "output image (.png, .jpg)")
	fs.IntVar(&cfg.workers, "workers", 0, "number of goroutines rendering tiles, 0 for all CPUs")
	fs.IntVar(&cfg.thumb, "thumb", 0, "also write a thumbnail with this width")
	fs.StringVar(&cfg.snapshotOut, "snapshot", "", "store the iteration counts in this file")
	fs.StringVar(&cfg.snapshotIn, "from-snapshot", "", "recolour a stored snapshot instead of rendering")
	fs.StringVar(&cfg.profileMode, "profile", "", "profile the run: cpu, mem or trace")
	fs.StringVar(&cfg.profileDir, "profile-dir", ".", "directory for profile output")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	cfg.params.Origin = complex(re, im)

	if cfg.region != "" {
		r, ok := mandel.RegionByName(cfg.region)
		if !ok {
			return config{}, fmt.Errorf("unknown region %q", cfg.region)
		}
		cfg.params = r.Params(cfg.params.Width, cfg.params.Height, cfg.params.IterationMax)
	}
	if _, ok := mandel.PaletteByName(cfg.palette); !ok {
		return config{}, fmt.Errorf("unknown palette %q", cfg.palette)
	}
	if cfg.thumb < 0 {
		return config{}, fmt.Errorf("negative thumbnail width %d", cfg.thumb)
	}
	return cfg, nil
}

func startProfile(mode, dir string) (interface{ Stop() }, error) {
	opts := []func(*profile.Profile){profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet}
	switch mode {
	case "":
		return nil, nil
	case "cpu":
		opts = append(opts, profile.CPUProfile)
	case "mem":
		opts = append(opts, profile.MemProfile)
	case "trace":
		opts = append(opts, profile.TraceProfile)
	default:
		return nil, fmt.Errorf("unknown profile mode %q", mode)
	}
	return profile.Start(opts...), nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("FATAL: %v", err)
	}
}

func run(args []string) error {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}

	prof, err := startProfile(cfg.profileMode, cfg.profileDir)
	if err != nil {
		return err
	}
	if prof != nil {
		defer prof.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := session.New()
	s.Palette = cfg.palette
	s = session.SetParams(s, cfg.params)
	s = session.SetSavePath(s, cfg.output)

	if cfg.snapshotIn != "" {
		log.Printf("Loading snapshot %q...", cfg.snapshotIn)
		pd, err := snapshot.Load(cfg.snapshotIn)
		if err != nil {
			return err
		}
		s.Pixels = &pd
	} else {
		p := cfg.params
		log.Printf("Rendering %dx%d at %v, scale %g, %d iterations...", p.Width, p.Height, p.Origin, p.Scale, p.IterationMax)
		s = session.Generate(ctx, &mandel.Generator{Workers: cfg.workers}, s)
		if s.Pixels == nil {
			return errors.New(s.GenerationMsg)
		}
		log.Print(s.GenerationMsg)
	}

	if cfg.snapshotOut != "" {
		if err := snapshot.Save(cfg.snapshotOut, *s.Pixels); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		log.Printf("Snapshot saved to %q", cfg.snapshotOut)
	}

	s = session.Save(s)
	if !strings.HasPrefix(s.SaveMsg, "Saved to ") {
		return errors.New(s.SaveMsg)
	}
	log.Print(s.SaveMsg)

	if cfg.thumb > 0 {
		path, err := writeThumbnail(s, cfg.thumb)
		if err != nil {
			return fmt.Errorf("thumbnail: %w", err)
		}
		log.Printf("Thumbnail saved to %q", path)
	}
	return nil
}
