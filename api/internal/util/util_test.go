package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```json{\"a\":1}```":     `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
		"```JSON\n[1]\n```":       `[1]`,
		"":                        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFences(in), "input %q", in)
	}
}

func TestSHA256Hex(t *testing.T) {
	assert.Len(t, SHA256Hex("a"), 64)
	assert.Equal(t, SHA256Hex("a", "b"), SHA256Hex("a", "b"))
	// разделитель не даёт склеить "ab"+"" и "a"+"b"
	assert.NotEqual(t, SHA256Hex("ab", ""), SHA256Hex("a", "b"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "привет", Truncate("привет", 10))
	assert.Equal(t, "при…", Truncate("привет", 3))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestUTF16Index(t *testing.T) {
	s := "café 😀 i"
	idx := NewUTF16Index(s)

	assert.Equal(t, 9, idx.Len())
	assert.Equal(t, 9, UTF16Len(s))

	// 'é': 2 байта, 1 code unit; 😀: 4 байта, 2 code units
	assert.Equal(t, 3, idx.Unit(3))
	assert.Equal(t, 4, idx.Unit(5))
	assert.Equal(t, 5, idx.Unit(6))
	assert.Equal(t, 7, idx.Unit(10))
	assert.Equal(t, 8, idx.Unit(11))

	assert.Equal(t, 11, idx.Byte(8))
	assert.Equal(t, "i", s[idx.Byte(8):idx.Byte(9)])
	assert.Equal(t, "😀", s[idx.Byte(5):idx.Byte(7)])
	assert.Equal(t, 0, idx.Byte(-1))
	assert.Equal(t, len(s), idx.Byte(100))
}
