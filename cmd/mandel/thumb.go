package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"

	"github.com/marben/mandelbrot/internal/session"
)

// thumbnailPath puts "_thumb" before the extension and always ends in .png.
func thumbnailPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_thumb.png"
}

// writeThumbnail downscales the display image of s to width pixels wide,
// keeping the aspect ratio, next to the saved image.
func writeThumbnail(s session.State, width int) (string, error) {
	img, err := session.DisplayImage(s)
	if err != nil {
		return "", err
	}
	small := resize.Resize(uint(width), 0, img, resize.Lanczos3)

	path := thumbnailPath(s.SavePath)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, small); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	return path, f.Close()
}
