package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/budgetbook/budgetbook/internal/model"
)

// Decoder turns raw statement bytes into a grid of cells.
type Decoder interface {
	Decode(data []byte) (model.Grid, error)
	Extensions() []string
}

// Sink receives the candidates a caller decided to keep. The parser never calls it.
type Sink interface {
	Store(ctx context.Context, txns []model.Candidate) error
}

// Registry holds decoders keyed by file extension.
type Registry struct {
	decoders map[string]Decoder
}

// FileInfo describes a statement file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty decoder registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// Register adds a decoder for each of its extensions. Panics on duplicate extension.
func (r *Registry) Register(d Decoder) {
	for _, ext := range d.Extensions() {
		key := strings.ToLower(ext)
		if _, ok := r.decoders[key]; ok {
			panic("duplicate decoder extension: " + key)
		}
		r.decoders[key] = d
	}
}

// Lookup returns the decoder for filename's extension, or nil.
func (r *Registry) Lookup(filename string) Decoder {
	return r.decoders[strings.ToLower(filepath.Ext(filename))]
}

// Supports reports whether filename has a registered extension.
func (r *Registry) Supports(filename string) bool {
	return r.Lookup(filename) != nil
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// DefaultRegistry returns a registry with the CSV, XLS and XLSX decoders.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CSVDecoder{})
	r.Register(XLSDecoder{})
	r.Register(XLSXDecoder{})
	return r
}

// importDir is the subdirectory holding statements waiting to be imported.
const importDir = "import"

// processedDir is the subdirectory for statements already imported.
const processedDir = "import/processed"

// Scan returns supported statement files in <repoRoot>/import/.
func (r *Registry) Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !r.Supports(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
