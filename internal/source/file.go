package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/saaskilahtij/windower/internal/record"
)

// File reads a CAN dump: a JSON array of raw record objects. Read can be
// called repeatedly; watch mode re-reads the same path on every cycle.
type File struct {
	path   string
	logger *zap.Logger
}

// NewFile creates a file source for path.
func NewFile(path string, logger *zap.Logger) *File {
	return &File{path: path, logger: logger}
}

// Read loads and decodes the dump. A missing file maps to
// ErrInputNotFound and malformed top-level JSON to ErrInputParse; both
// are fatal to the caller.
func (f *File) Read() ([]record.Raw, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, f.path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	var raws []record.Raw
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputParse, err)
	}

	f.logger.Debug("Input file read",
		zap.String("path", f.path),
		zap.Int("bytes", len(data)),
		zap.Int("records", len(raws)),
	)
	return raws, nil
}
