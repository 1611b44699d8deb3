package essay

import "strings"

// CEFRLevel: уровень владения языком A1..C2.
type CEFRLevel string

const (
	LevelA1 CEFRLevel = "A1"
	LevelA2 CEFRLevel = "A2"
	LevelB1 CEFRLevel = "B1"
	LevelB2 CEFRLevel = "B2"
	LevelC1 CEFRLevel = "C1"
	LevelC2 CEFRLevel = "C2"
)

var leniency = map[CEFRLevel]float64{
	LevelA1: 1.30,
	LevelA2: 1.25,
	LevelB1: 1.20,
	LevelB2: 1.15,
	LevelC1: 1.05,
	LevelC2: 1.00,
}

// ParseCEFR нормализует регистр и пробелы. Второе значение false, если уровень неизвестен.
func ParseCEFR(s string) (CEFRLevel, bool) {
	l := CEFRLevel(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := leniency[l]
	return l, ok
}

func (l CEFRLevel) Valid() bool {
	_, ok := leniency[l]
	return ok
}

// LeniencyMultiplier: коэффициент смягчения баллов. Неизвестный уровень
// получает коэффициент C1, а не максимальное смягчение.
func (l CEFRLevel) LeniencyMultiplier() float64 {
	if m, ok := leniency[CEFRLevel(strings.ToUpper(strings.TrimSpace(string(l))))]; ok {
		return m
	}
	return leniency[LevelC1]
}
