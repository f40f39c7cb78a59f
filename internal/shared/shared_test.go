package shared

import (
	"strings"
	"testing"
)

func TestTruncateRunes(t *testing.T) {
	tc := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short string untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"long string cut with ellipsis", "hello world", 5, "hello..."},
		{"multibyte runes not split", "日本語テキスト", 3, "日本語..."},
		{"zero max", "hello", 0, ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.in, tt.max); got != tt.want {
				t.Errorf("TruncateRunes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()
	if a == b {
		t.Error("consecutive ids are equal")
	}
	if len(a) != 36 || strings.Count(a, "-") != 4 {
		t.Errorf("id %q is not a uuid", a)
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"a": 1}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	if string(compact) != `{"a":1}` {
		t.Errorf("compact = %s", compact)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Errorf("pretty output is not indented: %s", pretty)
	}
}
