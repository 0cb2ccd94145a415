package sentiment

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Label is one of the two canonical sentiment classes.
type Label int

const (
	// Unmapped is returned by MapLabel for raw labels missing from LabelTable.
	Unmapped Label = iota - 1
	Negative
	Positive
)

// Classes lists the canonical classes in report order. Confusion rows and
// per-class metrics follow this order.
var Classes = [2]Label{Negative, Positive}

var labelNames = map[Label]string{
	Unmapped: "Unmapped",
	Negative: "Negative",
	Positive: "Positive",
}

// String returns the name of the label.
func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// Valid reports whether l is a canonical class.
func (l Label) Valid() bool {
	return l == Negative || l == Positive
}

// MarshalJSON encodes the label as its name.
func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a label name.
func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for label, name := range labelNames {
		if name == s {
			*l = label
			return nil
		}
	}
	return fmt.Errorf("sentiment: unknown label: %q", s)
}

// LabelTable maps normalized raw labels to canonical classes.
//
// The upstream data is labeled with three classes. Neutral reviews are
// folded into Negative so the classifier separates clearly positive reviews
// from everything else. Revisit this row set before adding a third class.
var LabelTable = map[string]Label{
	"pozitif":    Positive,
	"negatif":    Negative,
	"nötr":       Negative,
	"notr":       Negative,
	"nï¿½tr":     Negative, // U+FFFD bytes decoded as Latin-1
	"n\ufffdtr": Negative,
}

// NormalizeLabel lowercases and trims a raw label and puts it in NFC form, so
// decomposed and precomposed spellings of the same word compare equal.
func NormalizeLabel(raw string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(raw)))
}

// MapLabel returns the canonical class for raw, or Unmapped.
func MapLabel(raw string) Label {
	if label, ok := LabelTable[NormalizeLabel(raw)]; ok {
		return label
	}
	return Unmapped
}
