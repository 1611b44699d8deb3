package util

import "unicode/utf8"

// UTF16Index переводит байтовые смещения Go-строки в смещения
// в UTF-16 code units (так считает позиции браузерный клиент).
type UTF16Index struct {
	byteToUnit []int
}

func NewUTF16Index(s string) *UTF16Index {
	idx := make([]int, len(s)+1)
	units := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		for k := 0; k < size; k++ {
			idx[i+k] = units
		}
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
		i += size
	}
	idx[len(s)] = units
	return &UTF16Index{byteToUnit: idx}
}

// Unit возвращает UTF-16 смещение для байтового смещения b.
func (x *UTF16Index) Unit(b int) int {
	if b <= 0 {
		return 0
	}
	if b >= len(x.byteToUnit) {
		return x.byteToUnit[len(x.byteToUnit)-1]
	}
	return x.byteToUnit[b]
}

// Len: длина строки в UTF-16 code units.
func (x *UTF16Index) Len() int { return x.byteToUnit[len(x.byteToUnit)-1] }

// Byte: обратное преобразование: первый байт, чьё UTF-16 смещение >= u.
func (x *UTF16Index) Byte(u int) int {
	if u <= 0 {
		return 0
	}
	lo, hi := 0, len(x.byteToUnit)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if x.byteToUnit[mid] < u {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// UTF16Len: длина строки в UTF-16 code units без построения индекса.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
