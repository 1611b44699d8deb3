package rubric

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"essay-grader/api/internal/essay"
)

// LoadProfiles читает YAML со списком классов для начального заполнения хранилища.
//
//	classes:
//	  - id: 7b
//	    cefr_level: A2
//	    vocabulary: [weekend, homework]
func LoadProfiles(path string) ([]essay.ClassProfile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profiles: read %s: %w", path, err)
	}
	var doc struct {
		Classes []essay.ClassProfile `yaml:"classes"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("profiles: parse: %w", err)
	}
	for i := range doc.Classes {
		p := &doc.Classes[i]
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("profiles: class #%d has no id", i+1)
		}
		if p.CEFRLevel != "" {
			lvl, ok := essay.ParseCEFR(string(p.CEFRLevel))
			if !ok {
				return nil, fmt.Errorf("profiles: class %q: unknown CEFR level %q", p.ID, p.CEFRLevel)
			}
			p.CEFRLevel = lvl
		}
	}
	return doc.Classes, nil
}
