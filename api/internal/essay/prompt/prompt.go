// Package prompt assembles the system and user prompts sent to the model.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/util"
)

//go:embed templates/*.tmpl
var embedded embed.FS

const (
	SystemName = "system"
	UserName   = "user"
)

// Collocation: пара "дословно → идиоматично".
type Collocation struct {
	Wrong string
	Right string
}

// DefaultCollocations: коллокации, которые чаще всего ломают при переводе времени.
var DefaultCollocations = []Collocation{
	{"made homework", "did homework"},
	{"make homework", "do homework"},
	{"did a mistake", "made a mistake"},
	{"made a photo", "took a photo"},
	{"made a party", "had a party"},
	{"said a lie", "told a lie"},
	{"made sport", "did sport"},
	{"took a decision", "made a decision"},
}

// Input: всё, что нужно для сборки промпта.
type Input struct {
	Essay            string
	AssignmentPrompt string
	Profile          essay.ClassProfile
	Rubric           *essay.Rubric
}

// Prompt: готовая пара system/user.
type Prompt struct {
	System string
	User   string
}

type Builder struct {
	system *template.Template
	user   *template.Template

	Collocations []Collocation
}

var funcs = template.FuncMap{"join": strings.Join}

// NewBuilder загружает шаблоны. Если dir не пуст и там лежит <name>.tmpl,
// он перекрывает встроенный шаблон.
func NewBuilder(dir string) (*Builder, error) {
	sys, err := loadTemplate(dir, SystemName)
	if err != nil {
		return nil, err
	}
	usr, err := loadTemplate(dir, UserName)
	if err != nil {
		return nil, err
	}
	return &Builder{system: sys, user: usr, Collocations: DefaultCollocations}, nil
}

func loadTemplate(dir, name string) (*template.Template, error) {
	var body []byte
	if dir != "" {
		if b, err := os.ReadFile(filepath.Join(dir, name+".tmpl")); err == nil && len(b) > 0 {
			body = b
		}
	}
	if body == nil {
		b, err := embedded.ReadFile("templates/" + name + ".tmpl")
		if err != nil {
			return nil, fmt.Errorf("prompt %q: %w", name, err)
		}
		body = b
	}
	t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("prompt %q: parse: %w", name, err)
	}
	return t, nil
}

type systemData struct {
	ClassID      string
	Level        essay.CEFRLevel
	LevelGuide   *essay.CEFRGuideline
	Rubric       *essay.Rubric
	Categories   []string
	Collocations []Collocation
	Vocabulary   []string
	Grammar      []string
}

type userData struct {
	AssignmentPrompt string
	Essay            string
	Length           int
}

func (b *Builder) Build(in Input) (Prompt, error) {
	if strings.TrimSpace(in.Essay) == "" {
		return Prompt{}, fmt.Errorf("prompt: essay text is empty")
	}
	rubric := in.Rubric
	if rubric == nil {
		rubric = &essay.Rubric{}
	}
	level := in.Profile.CEFRLevel
	if !level.Valid() {
		level = essay.LevelC1
	}

	var cats []string
	for _, m := range essay.Categories() {
		cats = append(cats, string(m.Category))
	}
	sd := systemData{
		ClassID:      in.Profile.ID,
		Level:        level,
		Rubric:       rubric,
		Categories:   cats,
		Collocations: b.Collocations,
		Vocabulary:   in.Profile.Vocabulary,
		Grammar:      in.Profile.Grammar,
	}
	if g, ok := rubric.CEFRLevels[level]; ok {
		sd.LevelGuide = &g
	}

	var sys, usr bytes.Buffer
	if err := b.system.Execute(&sys, sd); err != nil {
		return Prompt{}, fmt.Errorf("prompt: system: %w", err)
	}
	ud := userData{
		AssignmentPrompt: strings.TrimSpace(in.AssignmentPrompt),
		Essay:            in.Essay,
		Length:           util.UTF16Len(in.Essay),
	}
	if err := b.user.Execute(&usr, ud); err != nil {
		return Prompt{}, fmt.Errorf("prompt: user: %w", err)
	}
	return Prompt{System: strings.TrimSpace(sys.String()), User: strings.TrimRight(usr.String(), "\n")}, nil
}
