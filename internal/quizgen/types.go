package quizgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// QuestionType is the closed enumeration of supported question shapes.
type QuestionType string

const (
	TypeMCQ  QuestionType = "mcq"
	TypeTF   QuestionType = "tf"
	TypeFill QuestionType = "fill"

	// typeShort is a deprecated free-text variant from an older schema.
	// It is accepted on input and normalized to fill, never emitted.
	typeShort = "short"
)

// AllTypes lists the supported types in canonical enumeration order.
var AllTypes = []QuestionType{TypeMCQ, TypeTF, TypeFill}

// ParseQuestionType normalizes a wire-level type string. The legacy
// "short" variant maps to fill.
func ParseQuestionType(s string) (QuestionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(TypeMCQ):
		return TypeMCQ, true
	case string(TypeTF):
		return TypeTF, true
	case string(TypeFill), typeShort:
		return TypeFill, true
	default:
		return "", false
	}
}

// AnswerKind discriminates the polymorphic answer field.
type AnswerKind int

const (
	AnswerIndex AnswerKind = iota // mcq: option index in [0,4)
	AnswerBool                    // tf
	AnswerText                    // fill: case-insensitive string match
)

// Answer is the tagged union behind the polymorphic answer field. Exactly
// one of Index, Bool, Text is meaningful, selected by Kind.
type Answer struct {
	Kind  AnswerKind
	Index int
	Bool  bool
	Text  string
}

func IndexAnswer(i int) Answer   { return Answer{Kind: AnswerIndex, Index: i} }
func BoolAnswer(b bool) Answer   { return Answer{Kind: AnswerBool, Bool: b} }
func TextAnswer(s string) Answer { return Answer{Kind: AnswerText, Text: s} }

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerIndex:
		return json.Marshal(a.Index)
	case AnswerBool:
		return json.Marshal(a.Bool)
	case AnswerText:
		return json.Marshal(a.Text)
	default:
		return nil, fmt.Errorf("unknown answer kind %d", a.Kind)
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	// json.Unmarshal treats null as a no-op for bool, which would smuggle
	// a missing answer through as false.
	if string(bytes.TrimSpace(data)) == "null" {
		return fmt.Errorf("answer must not be null")
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*a = BoolAnswer(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		if n != math.Trunc(n) {
			return fmt.Errorf("answer %v is not an integer", n)
		}
		*a = IndexAnswer(int(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = TextAnswer(s)
		return nil
	}
	return fmt.Errorf("answer %s is not a number, boolean or string", string(data))
}

// NormalizeFill reduces a fill answer to its comparison form: trimmed and
// lower-cased. "ACID", "acid" and " Acid " all normalize equal.
func NormalizeFill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FillMatches reports whether a submitted fill answer matches the key.
func FillMatches(key, submitted string) bool {
	return NormalizeFill(key) == NormalizeFill(submitted)
}

// Grade checks a submitted answer against the key. Fill answers compare
// case- and trim-insensitively; mcq and tf compare exactly.
func (a Answer) Grade(submitted Answer) bool {
	if a.Kind != submitted.Kind {
		return false
	}
	switch a.Kind {
	case AnswerIndex:
		return a.Index == submitted.Index
	case AnswerBool:
		return a.Bool == submitted.Bool
	case AnswerText:
		return FillMatches(a.Text, submitted.Text)
	default:
		return false
	}
}

// Citation grounds a question in the source document.
type Citation struct {
	Page    int    `json:"page"`
	Snippet string `json:"snippet"`
}

// Question is one validated quiz item.
type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Prompt      string       `json:"prompt"`
	Options     []string     `json:"options"`
	Answer      Answer       `json:"answer"`
	Explanation string       `json:"explanation"`
	Citations   []Citation   `json:"citations"`
}

// Meta describes a validated question set as a whole. The counts always
// sum to the question total, and only enabled types carry non-zero counts.
type Meta struct {
	UploadID     uint                 `json:"uploadId"`
	CreatedAt    time.Time            `json:"createdAt"`
	CountsByType map[QuestionType]int `json:"countsByType"`
}

// Result is the outcome of a successful generation: the validated
// question set plus its meta.
type Result struct {
	Questions []Question `json:"questions"`
	Meta      Meta       `json:"meta"`
}
