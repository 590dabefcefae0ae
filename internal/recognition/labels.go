package recognition

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// arabicDigits lists the digit characters in both scripts the plates use.
const arabicDigits = "٠١٢٣٤٥٦٧٨٩0123456789"

// LabelMap translates raw detector labels into display characters and knows
// which characters are digits.
//
// A LabelMap is treated as an immutable value once built.
type LabelMap struct {
	Chars  map[string]string
	Digits map[string]struct{}
}

// DefaultLabelMap returns the Arabic plate alphabet: class names 0-9 map to
// Arabic-Indic digits and the romanised letter names map to Arabic letters.
func DefaultLabelMap() LabelMap {
	return LabelMap{
		Chars: map[string]string{
			"0": "٠", "1": "١", "2": "٢", "3": "٣", "4": "٤",
			"5": "٥", "6": "٦", "7": "٧", "8": "٨", "9": "٩",
			"a": "أ", "b": "ب", "d": "د", "r": "ر", "sad": "ص",
			"sen": "س", "t": "ط", "en": "ع", "f": "ف", "q": "ق",
			"k": "ك", "l": "ل", "mem": "م", "non": "ن", "h": "هـ",
			"w": "و", "y": "ي",
		},
		Digits: digitSet(arabicDigits),
	}
}

// Map returns the display character for label. Unmapped labels pass through.
func (m LabelMap) Map(label string) string {
	if c, ok := m.Chars[label]; ok {
		return c
	}
	return label
}

// IsDigit reports whether char is one of the map's digit characters.
func (m LabelMap) IsDigit(char string) bool {
	_, ok := m.Digits[char]
	return ok
}

// labelFile is the YAML layout accepted by LoadLabelMap:
//
//	chars:
//	  a: أ
//	  sad: ص
//	digits: "٠١٢٣٤٥٦٧٨٩0123456789"
type labelFile struct {
	Chars  map[string]string `yaml:"chars"`
	Digits *string           `yaml:"digits"`
}

// LoadLabelMap reads a label table from a YAML file.
func LoadLabelMap(path string) (LabelMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LabelMap{}, fmt.Errorf("failed to read label file: %w", err)
	}
	return ParseLabelMap(data)
}

// ParseLabelMap decodes a label table. When digits is omitted the Arabic-Indic
// and ASCII digits are used.
func ParseLabelMap(data []byte) (LabelMap, error) {
	var f labelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return LabelMap{}, fmt.Errorf("failed to parse label file: %w", err)
	}
	if len(f.Chars) == 0 {
		return LabelMap{}, fmt.Errorf("label file has no chars section")
	}

	digits := arabicDigits
	if f.Digits != nil {
		digits = *f.Digits
	}
	return LabelMap{Chars: f.Chars, Digits: digitSet(digits)}, nil
}

func digitSet(chars string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range chars {
		set[string(r)] = struct{}{}
	}
	return set
}
