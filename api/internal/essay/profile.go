package essay

// ClassProfile: настройки класса: уровень, изучаемая лексика и грамматика.
type ClassProfile struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name,omitempty" yaml:"name"`
	CEFRLevel   CEFRLevel `json:"cefr_level" yaml:"cefr_level"`
	Vocabulary  []string  `json:"vocabulary" yaml:"vocabulary"`
	Grammar     []string  `json:"grammar" yaml:"grammar"`
	Temperature float32   `json:"temperature" yaml:"temperature"`
}

// Rubric: критерии оценки, загружается один раз при старте.
type Rubric struct {
	Categories  []RubricCategory            `json:"categories" yaml:"categories"`
	CEFRLevels  map[CEFRLevel]CEFRGuideline `json:"cefr_levels" yaml:"cefr_levels"`
	ZeroRules   []string                    `json:"zero_rules" yaml:"zero_rules"`
	LayoutRules []string                    `json:"layout_rules" yaml:"layout_rules"`
}

type RubricCategory struct {
	Name   string       `json:"name" yaml:"name"`
	Weight float64      `json:"weight" yaml:"weight"`
	Bands  []RubricBand `json:"bands" yaml:"bands"`
}

type RubricBand struct {
	Min         float64 `json:"min" yaml:"min"`
	Max         float64 `json:"max" yaml:"max"`
	Description string  `json:"description" yaml:"description"`
}

type CEFRGuideline struct {
	StrictnessModifier float64 `json:"strictness_modifier" yaml:"strictness_modifier"`
	Description        string  `json:"description" yaml:"description"`
}

// Category ищет критерий по имени.
func (r *Rubric) Category(name string) (RubricCategory, bool) {
	if r == nil {
		return RubricCategory{}, false
	}
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return RubricCategory{}, false
}

// TotalWeight: сумма весов (обычно 100).
func (r *Rubric) TotalWeight() float64 {
	if r == nil {
		return 0
	}
	var sum float64
	for _, c := range r.Categories {
		sum += c.Weight
	}
	return sum
}
