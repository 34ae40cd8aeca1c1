package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestNewSourceReader_BOM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello,world")...),
			expected: "hello,world",
		},
		{
			name:     "file without BOM",
			input:    []byte("hello,world"),
			expected: "hello,world",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: "??abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewSourceReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestNewSourceReader_SanitizesUTF8(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"valid ascii", []byte("abc"), "abc"},
		{"valid multibyte", []byte("Económico"), "Económico"},
		{"invalid byte", []byte{'a', 0xFF, 'b'}, "a?b"},
		{"truncated sequence at end", []byte{'a', 0xC3}, "a?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewSourceReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestNewSourceReader_SplitRunes(t *testing.T) {
	// One byte per read splits every multi-byte rune across reads.
	input := strings.Repeat("Ñandú €uro ", 50)
	r := NewSourceReader(iotest.OneByteReader(strings.NewReader(input)))

	result, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != input {
		t.Errorf("split runes were corrupted: got %q", string(result)[:40])
	}
}

func TestIncompleteSuffix(t *testing.T) {
	euro := []byte("€") // 3 bytes
	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{"empty", nil, 0},
		{"ascii", []byte("ab"), 0},
		{"complete rune", euro, 0},
		{"one of three", euro[:1], 1},
		{"two of three", append([]byte("a"), euro[:2]...), 2},
	}
	for _, tt := range tests {
		if got := incompleteSuffix(tt.in); got != tt.want {
			t.Errorf("%s: incompleteSuffix = %d, want %d", tt.name, got, tt.want)
		}
	}
}
