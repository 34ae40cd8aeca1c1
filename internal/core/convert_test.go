package core

import (
	"errors"
	"testing"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{name: "plain integer", input: "87", want: 87},
		{name: "surrounding whitespace", input: "  92 ", want: 92},
		{name: "negative", input: "-5", want: -5},
		{name: "explicit plus", input: "+5", want: 5},
		{name: "empty", input: "", wantErr: ErrEmptyCell},
		{name: "whitespace only", input: "   ", wantErr: ErrEmptyCell},
		{name: "decimal rejected", input: "10.0", wantErr: ErrCoercion},
		{name: "text rejected", input: "abc", wantErr: ErrCoercion},
		{name: "thousands separator rejected", input: "1,000", wantErr: ErrCoercion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInt(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseInt(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInt(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseInt(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr error
	}{
		{name: "integer", input: "15", want: 15},
		{name: "decimal", input: "15.5", want: 15.5},
		{name: "leading dot", input: ".5", want: 0.5},
		{name: "scientific", input: "1.5e2", want: 150},
		{name: "currency", input: "$1,234.50", want: 1234.50},
		{name: "euro", input: "€20", want: 20},
		{name: "accounting negative", input: "(12.5)", want: -12.5},
		{name: "empty", input: "", wantErr: ErrEmptyCell},
		{name: "text", input: "cheap", wantErr: ErrCoercion},
		{name: "nan rejected", input: "NaN", wantErr: ErrCoercion},
		{name: "inf rejected", input: "Inf", wantErr: ErrCoercion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFloat(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseFloat(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFloat(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseFloat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCell(t *testing.T) {
	v, err := ParseCell(ColumnCategorical, "  Italy ")
	if err != nil || v != "Italy" {
		t.Errorf("ParseCell(categorical) = %v, %v; want Italy", v, err)
	}

	v, err = ParseCell(ColumnInteger, "42")
	if err != nil || v != int64(42) {
		t.Errorf("ParseCell(integer) = %v (%T), %v; want int64 42", v, v, err)
	}

	v, err = ParseCell(ColumnFloat, "4.25")
	if err != nil || v != 4.25 {
		t.Errorf("ParseCell(float) = %v (%T), %v; want 4.25", v, v, err)
	}

	if _, err := ParseCell(ColumnText, " "); !errors.Is(err, ErrEmptyCell) {
		t.Errorf("ParseCell(blank text) error = %v, want ErrEmptyCell", err)
	}
	if _, err := ParseCell(ColumnType(99), "x"); !errors.Is(err, ErrCoercion) {
		t.Errorf("ParseCell(unknown type) error = %v, want ErrCoercion", err)
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello", "hello"},
		{"", ""},
		{"  hello  ", "hello"},
		{`="12345"`, "12345"},
		{"=SUM(A1)", "SUM(A1)"},
		{`"quoted"`, "quoted"},
		{`'single'`, "single"},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsDigits(t *testing.T) {
	tests := map[string]bool{
		"123":  true,
		"0":    true,
		"":     false,
		"12a":  false,
		"-1":   false,
		"1.0":  false,
		" 12 ": false,
	}
	for in, want := range tests {
		if got := IsDigits(in); got != want {
			t.Errorf("IsDigits(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMakeHeaderIndex_DuplicateHeaders(t *testing.T) {
	idx := MakeHeaderIndex([]string{"Country", " POINTS ", "country"})

	if idx["country"] != 0 {
		t.Errorf("idx[country] = %d, want 0 (first duplicate wins)", idx["country"])
	}
	if idx["points"] != 1 {
		t.Errorf("idx[points] = %d, want 1", idx["points"])
	}
	if len(idx) != 2 {
		t.Errorf("len(idx) = %d, want 2", len(idx))
	}
}
