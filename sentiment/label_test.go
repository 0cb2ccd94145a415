package sentiment

import (
	"encoding/json"
	"testing"
)

func TestMapLabel(t *testing.T) {
	tests := []struct {
		raw  string
		want Label
	}{
		{"pozitif", Positive},
		{"Pozitif", Positive},
		{"  POZITIF\t", Positive},
		{"negatif", Negative},
		{" Negatif ", Negative},
		{"nötr", Negative},
		{"NÖTR ", Negative},
		{"no\u0308tr", Negative}, // decomposed ö
		{"notr", Negative},
		{"Notr", Negative},
		{"nï¿½tr", Negative},
		{"n\ufffdtr", Negative},
		{"unknown", Unmapped},
		{"positive", Unmapped},
		{"", Unmapped},
		{"poz itif", Unmapped},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := MapLabel(tt.raw); got != tt.want {
				t.Errorf("MapLabel(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLabelTableKeysAreNormalized(t *testing.T) {
	for key, want := range LabelTable {
		if NormalizeLabel(key) != key {
			t.Errorf("key %q is not in normalized form", key)
		}
		if !want.Valid() {
			t.Errorf("key %q maps to non-canonical %v", key, want)
		}
		for _, variant := range []string{key, "  " + key + " ", "\t" + key + "\n"} {
			if got := MapLabel(variant); got != want {
				t.Errorf("MapLabel(%q) = %v, want %v", variant, got, want)
			}
		}
	}
}

func TestLabelJSON(t *testing.T) {
	data, err := json.Marshal([]Label{Negative, Positive})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["Negative","Positive"]` {
		t.Fatalf("Marshal = %s", data)
	}
	var back []Label
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back[0] != Negative || back[1] != Positive {
		t.Fatalf("Unmarshal = %v", back)
	}
	var l Label
	if err := json.Unmarshal([]byte(`"Neutral"`), &l); err == nil {
		t.Fatal("expected error for unknown label name")
	}
}

func TestLabelString(t *testing.T) {
	if Positive.String() != "Positive" || Negative.String() != "Negative" || Unmapped.String() != "Unmapped" {
		t.Fatal("unexpected label names")
	}
	if got := Label(7).String(); got != "Label(7)" {
		t.Fatalf("Label(7).String() = %q", got)
	}
}
