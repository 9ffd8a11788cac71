package kit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bflamig/dfxplay/internal/fontparser"
	"github.com/bflamig/dfxplay/internal/fontvalidate"
)

// IncludeLoader resolves a drum's `include` filename to its parsed and
// validated body. drumName identifies the including drum for error
// messages; drumDir is the directory an include path is relative to.
type IncludeLoader func(drumName, includePath, drumDir string) (*fontparser.Value, error)

// FileIncludeLoader resolves includes relative to baseDir (typically a
// kit's include_base_path, falling back to the drum's own directory
// when includePath is not itself absolute and baseDir is empty).
func FileIncludeLoader(baseDir string) IncludeLoader {
	return func(drumName, includePath, drumDir string) (*fontparser.Value, error) {
		resolveDir := drumDir
		if baseDir != "" {
			resolveDir = baseDir
		}
		full := includePath
		if !filepath.IsAbs(full) {
			full = filepath.Join(resolveDir, includePath)
		}

		data, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("drum %q: include %q: %w", drumName, full, err)
		}

		root, perr := fontparser.New(string(data)).Parse()
		if perr != nil {
			return nil, fmt.Errorf("drum %q: include %q: %w", drumName, full, perr)
		}

		log := fontvalidate.ValidateInstrumentBody(drumName, root)
		if !log.OK() {
			return nil, fmt.Errorf("drum %q: include %q: %s", drumName, full, log.Errors[0].Error())
		}

		top := root
		if root.Kind == fontparser.VNameValue {
			top = root.Child
		}
		return top, nil
	}
}
