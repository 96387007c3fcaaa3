package snapshot

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/plotline/internal/plot"
)

//go:embed schema.cue
var schemaCUE string

// Document is the on-disk form of a plot.
type Document struct {
	Entities    []plot.Entity     `yaml:"entities" json:"entities"`
	Events      []plot.Event      `yaml:"events" json:"events"`
	Experiences []plot.Experience `yaml:"experiences" json:"experiences"`
}

// FromPlot captures every record of p.
func FromPlot(p *plot.Plot) Document {
	return Document{
		Entities:    nonNil(p.Entities()),
		Events:      nonNil(p.Events()),
		Experiences: nonNil(p.Experiences()),
	}
}

// Load reads the plot stored at path. A missing file yields an empty plot.
// opts configure the returned plot.
func Load(path string, opts ...plot.Option) (*plot.Plot, error) {
	p := plot.New(opts...)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}

	if err := p.Restore(doc.Entities, doc.Events, doc.Experiences); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return p, nil
}

// Decode parses and validates a YAML document.
func Decode(data []byte) (Document, error) {
	var doc Document
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	// Parse YAML with strict field validation
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate checks doc against the embedded CUE schema.
func Validate(doc Document) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling snapshot schema: %w", err)
	}

	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Document")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}
	return nil
}

// Save writes p to path, creating the parent directory if needed. The file
// is replaced atomically: readers see either the old or the new document.
func Save(path string, p *plot.Plot) error {
	data, err := Encode(FromPlot(p))
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Encode renders doc as YAML with two-space indentation.
func Encode(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
