package core

import (
	"errors"
	"strings"
	"time"
)

const (
	WalkingAround DelightType = "walking around"
	Fellowship    DelightType = "fellowship"
	Deliciousness DelightType = "deliciousness"
	Transcendence DelightType = "transcendence"
	Goofing       DelightType = "goofing"
	Amelioration  DelightType = "amelioration"
	Decadence     DelightType = "decadence"
	Enthrallment  DelightType = "enthrallment"
	Wildcard      DelightType = "wildcard"
)

type (
	DelightType string

	// Delight describes one of the nine fixed categories. Label and Color
	// are presentational and carried through to the rendering layer.
	Delight struct {
		Type  DelightType
		Label string
		Color string
	}

	// Entry is a single delight practiced on a given day. Row is the
	// 1-based sheet row assigned by the store; it is stable until a delete
	// shifts later rows, so callers must re-fetch after mutations.
	Entry struct {
		Row          int         `json:"rowIndex"`
		Date         string      `json:"date"` // yyyy-MM-dd, zero-padded
		Type         DelightType `json:"delight"`
		Description  string      `json:"description"`
		WildcardName string      `json:"wildcardName,omitempty"`
		ImageURL     string      `json:"imageUrl,omitempty"`
		CreatedAt    string      `json:"createdAt"`
	}
)

// Delights is the fixed ordered set of the nine categories. Order matters:
// frequency ties and the zero-count leastPracticed fallback follow it.
var Delights = []Delight{
	{Type: WalkingAround, Label: "Walking Around", Color: "#7EC8A0"},
	{Type: Fellowship, Label: "Fellowship", Color: "#F4A261"},
	{Type: Deliciousness, Label: "Deliciousness", Color: "#E76F51"},
	{Type: Transcendence, Label: "Transcendence", Color: "#A78BFA"},
	{Type: Goofing, Label: "Goofing", Color: "#FBBF24"},
	{Type: Amelioration, Label: "Amelioration", Color: "#60A5FA"},
	{Type: Decadence, Label: "Decadence", Color: "#F472B6"},
	{Type: Enthrallment, Label: "Enthrallment", Color: "#34D399"},
	{Type: Wildcard, Label: "Wildcard", Color: "#818CF8"},
}

var (
	ErrEmptyDate       = errors.New("empty date")
	ErrInvalidDate     = errors.New("invalid date: expected yyyy-MM-dd")
	ErrInvalidDelight  = errors.New("unknown delight type")
	ErrInvalidRow      = errors.New("invalid row reference")
	ErrLongDescription = errors.New("description too long (max 500 characters)")
)

// IsValid reports whether t is one of the nine known categories.
func (t DelightType) IsValid() bool {
	for _, d := range Delights {
		if d.Type == t {
			return true
		}
	}
	return false
}

// Config returns the fixed definition for t. The second return is false
// for unknown types.
func (t DelightType) Config() (Delight, bool) {
	for _, d := range Delights {
		if d.Type == t {
			return d, true
		}
	}
	return Delight{}, false
}

// ParseDay validates a zero-padded ISO calendar date. The whole system
// compares dates lexicographically, which is only sound for this format.
func ParseDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyDate
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", ErrInvalidDate
	}
	// Reject inputs that parse but are not zero-padded (e.g. 2024-1-2).
	if t.Format("2006-01-02") != s {
		return "", ErrInvalidDate
	}
	return s, nil
}

func (e Entry) Validate() error {
	if _, err := ParseDay(e.Date); err != nil {
		return err
	}
	if !e.Type.IsValid() {
		return ErrInvalidDelight
	}
	if len(e.Description) > 500 {
		return ErrLongDescription
	}
	return nil
}

// DisplayName renders the entry's category for presentation. Named
// wildcards show the user-supplied label; WildcardName is ignored for
// every other category even when present.
func (e Entry) DisplayName() string {
	if e.Type == Wildcard && strings.TrimSpace(e.WildcardName) != "" {
		return "Wildcard: " + e.WildcardName
	}
	if d, ok := e.Type.Config(); ok {
		return d.Label
	}
	return string(e.Type)
}
