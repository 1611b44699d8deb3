package essay

// Category: закрытый перечень категорий замечаний. Все потребители
// (детекторы, промпт, UI-таблица, бот) берут метаданные из categoryMeta.
type Category string

const (
	CategoryGrammar        Category = "grammar"
	CategorySpelling       Category = "spelling"
	CategoryVocabulary     Category = "vocabulary"
	CategoryWordChoice     Category = "word_choice"
	CategoryPunctuation    Category = "punctuation"
	CategoryCapitalization Category = "capitalization"
	CategoryPreposition    Category = "preposition"
	CategoryWordOrder      Category = "word_order"
	CategoryMechanics      Category = "mechanics"
	CategoryCoaching       Category = "coaching"
	CategoryOther          Category = "other"
)

// CategoryMeta: отображаемое имя и цвет подсветки.
type CategoryMeta struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Color    string   `json:"color"`
}

var categoryOrder = []Category{
	CategoryGrammar,
	CategorySpelling,
	CategoryVocabulary,
	CategoryWordChoice,
	CategoryPunctuation,
	CategoryCapitalization,
	CategoryPreposition,
	CategoryWordOrder,
	CategoryMechanics,
	CategoryCoaching,
	CategoryOther,
}

var categoryMeta = map[Category]CategoryMeta{
	CategoryGrammar:        {CategoryGrammar, "Grammar", "#f28b82"},
	CategorySpelling:       {CategorySpelling, "Spelling", "#fbbc04"},
	CategoryVocabulary:     {CategoryVocabulary, "Vocabulary", "#a7ffeb"},
	CategoryWordChoice:     {CategoryWordChoice, "Word choice", "#cbf0f8"},
	CategoryPunctuation:    {CategoryPunctuation, "Punctuation", "#d7aefb"},
	CategoryCapitalization: {CategoryCapitalization, "Capitalization", "#fdcfe8"},
	CategoryPreposition:    {CategoryPreposition, "Preposition", "#ccff90"},
	CategoryWordOrder:      {CategoryWordOrder, "Word order", "#aecbfa"},
	CategoryMechanics:      {CategoryMechanics, "Mechanics", "#e6c9a8"},
	CategoryCoaching:       {CategoryCoaching, "Coaching", "#e8eaed"},
	CategoryOther:          {CategoryOther, "Other", "#dadce0"},
}

// Known сообщает, входит ли значение в перечень.
func (c Category) Known() bool {
	_, ok := categoryMeta[c]
	return ok
}

// Meta возвращает метаданные; неизвестные категории (их может прислать модель)
// отображаются как "other".
func (c Category) Meta() CategoryMeta {
	if m, ok := categoryMeta[c]; ok {
		return m
	}
	return categoryMeta[CategoryOther]
}

// Categories: таблица метаданных в каноническом порядке.
func Categories() []CategoryMeta {
	out := make([]CategoryMeta, 0, len(categoryOrder))
	for _, c := range categoryOrder {
		out = append(out, categoryMeta[c])
	}
	return out
}
