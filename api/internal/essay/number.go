package essay

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// looseNumber читает число, которое модель может прислать как 12, 12.0 или "12".
// Пустое значение и null дают 0; ok=false, если это вообще не число.
func looseNumber(raw json.RawMessage) (v float64, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, true
	}
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// looseOffset: целое смещение или -1, чтобы замечание не прошло Valid.
func looseOffset(raw json.RawMessage) int {
	v, ok := looseNumber(raw)
	if !ok || v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
		return -1
	}
	return int(v)
}

func (o *Offsets) UnmarshalJSON(b []byte) error {
	var raw struct {
		Start json.RawMessage `json:"start"`
		End   json.RawMessage `json:"end"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		*o = Offsets{Start: -1, End: -1}
		return nil
	}
	*o = Offsets{Start: looseOffset(raw.Start), End: looseOffset(raw.End)}
	return nil
}

func (s *Score) UnmarshalJSON(b []byte) error {
	var raw struct {
		Points    json.RawMessage `json:"points"`
		OutOf     json.RawMessage `json:"out_of"`
		Rationale json.RawMessage `json:"rationale"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		// "grammar": 8 вместо объекта
		v, ok := looseNumber(b)
		if !ok {
			return err
		}
		*s = Score{Points: v}
		return nil
	}
	// нечисловой мусор считаем нулём
	s.Points, _ = looseNumber(raw.Points)
	s.OutOf, _ = looseNumber(raw.OutOf)
	s.Rationale = ""
	if len(raw.Rationale) > 0 {
		_ = json.Unmarshal(raw.Rationale, &s.Rationale)
	}
	return nil
}

func (t *Total) UnmarshalJSON(b []byte) error {
	var raw struct {
		Points json.RawMessage `json:"points"`
		OutOf  json.RawMessage `json:"out_of"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t.Points, _ = looseNumber(raw.Points)
	t.OutOf, _ = looseNumber(raw.OutOf)
	return nil
}
