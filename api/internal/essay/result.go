package essay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NoMatchesSentinel подставляется в class_vocabulary_used, когда совпадений нет.
const NoMatchesSentinel = "N/A (no matches found)"

// GradingResult: итоговый документ проверки эссе.
type GradingResult struct {
	Meta                       Meta    `json:"meta"`
	CorrectedTextMinimal       string  `json:"corrected_text_minimal"`
	SuggestedPolishOneSentence string  `json:"suggested_polish_one_sentence"`
	Scores                     Scores  `json:"scores"`
	Total                      Total   `json:"total"`
	InlineIssues               []Issue `json:"inline_issues"`
	TeacherNotes               Notes   `json:"teacher_notes"`
	EncouragementNextSteps     Notes   `json:"encouragement_next_steps"`
}

type Score struct {
	Points    float64 `json:"points"`
	OutOf     float64 `json:"out_of"`
	Rationale string  `json:"rationale,omitempty"`
}

type Total struct {
	Points float64 `json:"points"`
	OutOf  float64 `json:"out_of"`
}

// ScoreEntry: именованный балл; Scores хранит порядок ключей из ответа модели.
type ScoreEntry struct {
	Category string
	Score
}

type Scores []ScoreEntry

func (s Scores) Get(category string) (Score, bool) {
	for _, e := range s {
		if e.Category == category {
			return e.Score, true
		}
	}
	return Score{}, false
}

func (s Scores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Category)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Score)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Scores) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*s = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("scores: expected object, got %v", tok)
	}
	var out Scores
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var sc Score
		if err := dec.Decode(&sc); err != nil {
			return fmt.Errorf("scores[%s]: %w", key, err)
		}
		out = append(out, ScoreEntry{Category: key, Score: sc})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// UsageList: список найденных слов. Модель иногда присылает строку вместо
// массива, поэтому разбор гибкий.
type UsageList []string

func (u *UsageList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*u = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*u = nil
			return nil
		}
		*u = UsageList{s}
		return nil
	}
	// что-то странное: молча игнорируем, значение всё равно перезаписывается локально
	*u = nil
	return nil
}

// Notes: текст или список пунктов; сериализуется как массив строк.
type Notes []string

func (n *Notes) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*n = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("notes: expected string or array: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*n = nil
		return nil
	}
	*n = Notes{s}
	return nil
}

// Meta: служебные поля результата. Неизвестные ключи модели сохраняются в Extra.
type Meta struct {
	ClassID               string    `json:"class_id,omitempty"`
	CEFRLevel             CEFRLevel `json:"cefr_level,omitempty"`
	WordCount             int       `json:"word_count,omitempty"`
	TransitionWordsFound  UsageList `json:"transition_words_found"`
	ClassVocabularyUsed   UsageList `json:"class_vocabulary_used"`
	GrammarStructuresUsed UsageList `json:"grammar_structures_used,omitempty"`
	Engine                string    `json:"engine,omitempty"`
	Model                 string    `json:"model,omitempty"`
	RequestID             string    `json:"request_id,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type metaAlias Meta

var metaKnownKeys = []string{
	"class_id", "cefr_level", "word_count", "transition_words_found", "class_vocabulary_used",
	"grammar_structures_used", "engine", "model", "request_id",
}

func (m *Meta) UnmarshalJSON(b []byte) error {
	var a metaAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range metaKnownKeys {
		delete(all, k)
	}
	if len(all) > 0 {
		a.Extra = all
	}
	*m = Meta(a)
	return nil
}

func (m Meta) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(metaAlias(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return known, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
