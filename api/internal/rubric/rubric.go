package rubric

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"essay-grader/api/internal/essay"
)

//go:embed default.yaml
var defaultYAML []byte

var ErrInvalid = errors.New("rubric: invalid")

// Default: встроенная рубрика.
func Default() (*essay.Rubric, error) {
	return Parse(defaultYAML)
}

// Load читает рубрику из файла; пустой путь: встроенная.
func Load(path string) (*essay.Rubric, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rubric: read %s: %w", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (*essay.Rubric, error) {
	var r essay.Rubric
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("rubric: parse: %w", err)
	}
	if err := Validate(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

func Validate(r *essay.Rubric) error {
	if r == nil || len(r.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalid)
	}
	seen := make(map[string]bool, len(r.Categories))
	for i, c := range r.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("%w: category #%d has no name", ErrInvalid, i+1)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalid, name)
		}
		seen[name] = true
		if c.Weight <= 0 {
			return fmt.Errorf("%w: category %q weight must be positive", ErrInvalid, name)
		}
		for _, b := range c.Bands {
			if b.Min > b.Max || b.Max > c.Weight {
				return fmt.Errorf("%w: category %q band %g-%g", ErrInvalid, name, b.Min, b.Max)
			}
		}
	}
	for lvl := range r.CEFRLevels {
		if !lvl.Valid() {
			return fmt.Errorf("%w: unknown CEFR level %q", ErrInvalid, lvl)
		}
	}
	return nil
}
