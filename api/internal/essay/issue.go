package essay

// Offsets: полуинтервал [Start, End) в UTF-16 code units исходного текста эссе.
type Offsets struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (o Offsets) Len() int { return o.End - o.Start }

// Valid проверяет инвариант 0 <= start <= end <= textLen.
func (o Offsets) Valid(textLen int) bool {
	return o.Start >= 0 && o.Start <= o.End && o.End <= textLen
}

// Overlaps: строгое пересечение полуинтервалов; касание границами не считается,
// пустой интервал не пересекается ни с чем.
func (o Offsets) Overlaps(other Offsets) bool {
	if o.Len() <= 0 || other.Len() <= 0 {
		return false
	}
	return !(o.Start >= other.End || o.End <= other.Start)
}

// Issue: одно замечание к фрагменту эссе.
type Issue struct {
	Type         Category `json:"type"`
	Subtype      string   `json:"subtype,omitempty"`
	Message      string   `json:"message"`
	Text         string   `json:"text,omitempty"`
	Offsets      Offsets  `json:"offsets"`
	CoachingOnly bool     `json:"coaching_only,omitempty"`
}
