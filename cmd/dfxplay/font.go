package main

import (
	"fmt"
	"os"

	"github.com/bflamig/dfxplay/internal/fontparser"
	"github.com/bflamig/dfxplay/internal/fontvalidate"
	"github.com/bflamig/dfxplay/internal/kit"
)

// loadFont parses and schema-validates the font at path, returning its
// root Value alongside any accumulated validation errors (non-fatal:
// the caller decides whether to proceed).
func loadFont(path string) (*fontparser.Value, *fontvalidate.Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read font %s: %w", path, err)
	}

	root, err := fontparser.New(string(data)).Parse()
	if err != nil {
		return nil, nil, fmt.Errorf("parse font %s: %w", path, err)
	}

	log := fontvalidate.Validate(root)
	return root, log, nil
}

// buildFont runs the Kit Builder over an already-parsed font, wiring
// include-file resolution relative to the font's own directory.
func buildFont(root *fontparser.Value, fontPath string, outputRate float64) (*kit.Font, []error) {
	opts := kit.Options{
		OutputRate:    outputRate,
		IncludeLoader: kit.FileIncludeLoader(""),
	}
	return kit.Build(root, fontPath, opts)
}

// selectKit returns the named kit, or the first kit if name is empty.
func selectKit(font *kit.Font, name string) (*kit.Kit, error) {
	if len(font.Kits) == 0 {
		return nil, fmt.Errorf("font contains no kits")
	}
	if name == "" {
		return font.Kits[0], nil
	}
	for _, k := range font.Kits {
		if k.Name == name {
			return k, nil
		}
	}
	return nil, fmt.Errorf("no kit named %q in font", name)
}
