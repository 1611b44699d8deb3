package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"essay-grader/api/internal/essay"
)

func testRubric() *essay.Rubric {
	return &essay.Rubric{
		Categories: []essay.RubricCategory{
			{Name: "grammar", Weight: 40, Bands: []essay.RubricBand{{Min: 30, Max: 40, Description: "few errors"}}},
			{Name: "vocabulary", Weight: 30},
			{Name: "organization", Weight: 30},
		},
		CEFRLevels: map[essay.CEFRLevel]essay.CEFRGuideline{
			essay.LevelA2: {StrictnessModifier: 1.25, Description: "simple sentences"},
		},
		ZeroRules:   []string{"Off-topic essays score 0."},
		LayoutRules: []string{"Use paragraphs."},
	}
}

func TestBuildIncludesProfileAndRubric(t *testing.T) {
	b, err := NewBuilder("")
	require.NoError(t, err)

	p, err := b.Build(Input{
		Essay:            "i like friday",
		AssignmentPrompt: "Describe your week.",
		Profile: essay.ClassProfile{
			ID:         "7b",
			CEFRLevel:  essay.LevelA2,
			Vocabulary: []string{"weekend", "un-"},
			Grammar:    []string{"past simple"},
		},
		Rubric: testRubric(),
	})
	require.NoError(t, err)

	assert.Contains(t, p.System, "class 7b at CEFR level A2")
	assert.Contains(t, p.System, "simple sentences")
	assert.Contains(t, p.System, "- grammar (out of 40)")
	assert.Contains(t, p.System, "30–40: few errors")
	assert.Contains(t, p.System, "Off-topic essays score 0.")
	assert.Contains(t, p.System, "Use paragraphs.")
	assert.Contains(t, p.System, `"make homework" → "do homework"`)
	assert.Contains(t, p.System, "- weekend")
	assert.Contains(t, p.System, "- past simple")
	assert.Contains(t, p.System, `"total": {"points": number, "out_of": 100}`)
	assert.Contains(t, p.System, `"grammar": {"points": number, "out_of": 40`)

	assert.Contains(t, p.User, "ASSIGNMENT PROMPT:\nDescribe your week.")
	assert.Contains(t, p.User, "13 code units")
	assert.Contains(t, p.User, "ESSAY:\ni like friday")
}

func TestBuildDefaultsUnknownLevel(t *testing.T) {
	b, err := NewBuilder("")
	require.NoError(t, err)

	p, err := b.Build(Input{Essay: "text", Profile: essay.ClassProfile{ID: "x"}})
	require.NoError(t, err)
	assert.Contains(t, p.System, "CEFR level C1")
	assert.NotContains(t, p.User, "ASSIGNMENT PROMPT")
	assert.NotContains(t, p.System, "CLASS VOCABULARY")
}

func TestBuildRejectsEmptyEssay(t *testing.T) {
	b, err := NewBuilder("")
	require.NoError(t, err)

	_, err = b.Build(Input{Essay: "  \n"})
	require.Error(t, err)
}

func TestBuilderDirOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user.tmpl"), []byte("ESSAY={{.Essay}}"), 0o644))

	b, err := NewBuilder(dir)
	require.NoError(t, err)

	p, err := b.Build(Input{Essay: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "ESSAY=hello", p.User)
	// system берётся из встроенного шаблона
	assert.Contains(t, p.System, "PART A")
}

func TestBuilderBadOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.tmpl"), []byte("{{.Nope"), 0o644))

	_, err := NewBuilder(dir)
	require.Error(t, err)
}
