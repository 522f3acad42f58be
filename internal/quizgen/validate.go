package quizgen

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"clarita-backend/internal/apperrors"
	logger "clarita-backend/pkg/logging"
)

const (
	mcqOptionCount = 4
	fillAnswerCap  = 50
)

// blankMarkers are the accepted blank spellings in fill prompts.
var blankMarkers = []string{"______", "_____"}

type rawQuestion struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Prompt      string          `json:"prompt"`
	Options     *[]string       `json:"options"`
	Answer      json.RawMessage `json:"answer"`
	Explanation string          `json:"explanation"`
	Citations   []Citation      `json:"citations"`
}

type rawPayload struct {
	Questions []rawQuestion `json:"questions"`
}

// ParseAndValidate checks a raw generator payload against the hard rules
// of the generation contract and returns the validated question set with
// its meta. Any hard violation rejects the whole payload; advisory issues
// are logged and, where a safe default exists, coerced.
//
// Hard rules: total count must equal n; every type must be enabled; every
// question must carry an options array (possibly empty); mcq needs exactly
// 4 non-empty options and an integer answer in [0,4); tf needs a boolean
// answer; fill needs a non-empty (after trim) string answer.
func ParseAndValidate(raw []byte, n int, enabled []QuestionType, dist map[QuestionType]int, uploadID uint, now time.Time) (*Result, error) {
	rawQuestions, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}

	if len(rawQuestions) != n {
		return nil, apperrors.Validation("generator returned %d questions, expected %d", len(rawQuestions), n)
	}

	enabledSet := make(map[QuestionType]bool, len(enabled))
	for _, t := range enabled {
		enabledSet[t] = true
	}

	questions := make([]Question, 0, n)
	counts := make(map[QuestionType]int, len(enabled))

	for i, rq := range rawQuestions {
		qt, ok := ParseQuestionType(rq.Type)
		if !ok {
			return nil, apperrors.Validation("question %d has unknown type %q", i+1, rq.Type)
		}
		if !enabledSet[qt] {
			return nil, apperrors.Validation("question %d has type %q which is not enabled", i+1, qt)
		}
		if rq.Options == nil {
			return nil, apperrors.Validation("question %d lacks an options array", i+1)
		}

		var answer Answer
		if len(rq.Answer) == 0 {
			return nil, apperrors.Validation("question %d lacks an answer", i+1)
		}
		if err := json.Unmarshal(rq.Answer, &answer); err != nil {
			return nil, apperrors.Validation("question %d has a malformed answer: %v", i+1, err)
		}

		options := *rq.Options
		switch qt {
		case TypeMCQ:
			if len(options) != mcqOptionCount {
				return nil, apperrors.Validation("mcq question %d has %d options, expected %d", i+1, len(options), mcqOptionCount)
			}
			for j, opt := range options {
				if strings.TrimSpace(opt) == "" {
					return nil, apperrors.Validation("mcq question %d has an empty option at index %d", i+1, j)
				}
			}
			if answer.Kind != AnswerIndex || answer.Index < 0 || answer.Index >= mcqOptionCount {
				return nil, apperrors.Validation("mcq question %d answer must be an integer index in [0,%d)", i+1, mcqOptionCount)
			}
		case TypeTF:
			if answer.Kind != AnswerBool {
				return nil, apperrors.Validation("tf question %d answer must be a boolean", i+1)
			}
		case TypeFill:
			if answer.Kind != AnswerText || strings.TrimSpace(answer.Text) == "" {
				return nil, apperrors.Validation("fill question %d answer must be a non-empty string", i+1)
			}
			if !hasBlankMarker(rq.Prompt) {
				logger.Warn("fill question %d prompt is missing a blank marker", i+1)
			}
			if fillAnswerRunes(answer.Text) > fillAnswerCap {
				logger.Warn("fill question %d answer exceeds %d characters", i+1, fillAnswerCap)
			}
		}

		// Options only make sense for mcq; elsewhere a safe default
		// exists, so coerce instead of rejecting.
		if qt != TypeMCQ && len(options) > 0 {
			logger.Warn("%s question %d carried %d options, clearing them", qt, i+1, len(options))
			options = []string{}
		}
		if options == nil {
			options = []string{}
		}

		id := strings.TrimSpace(rq.ID)
		if id == "" {
			id = uuid.New().String()
		}

		citations := rq.Citations
		if citations == nil {
			citations = []Citation{}
		}

		counts[qt]++
		questions = append(questions, Question{
			ID:          id,
			Type:        qt,
			Prompt:      rq.Prompt,
			Options:     options,
			Answer:      answer,
			Explanation: rq.Explanation,
			Citations:   citations,
		})
	}

	for t, want := range dist {
		got := counts[t]
		if got-want > 1 || want-got > 1 {
			logger.Warn("type %s count %d deviates from advisory target %d", t, got, want)
		}
	}

	return &Result{
		Questions: questions,
		Meta: Meta{
			UploadID:     uploadID,
			CreatedAt:    now,
			CountsByType: counts,
		},
	}, nil
}

func decodePayload(raw []byte) ([]rawQuestion, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, apperrors.Upstream("generator returned an empty payload", false, nil)
	}

	var payload rawPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil && payload.Questions != nil {
		return payload.Questions, nil
	}

	// Some models answer with a bare array despite the schema.
	var list []rawQuestion
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		return list, nil
	}

	return nil, apperrors.Upstream("generator returned an unparseable payload", false, nil)
}

// fillAnswerRunes measures a trimmed fill answer in characters, not
// bytes, so multibyte answers are not penalized.
func fillAnswerRunes(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func hasBlankMarker(prompt string) bool {
	for _, m := range blankMarkers {
		if strings.Contains(prompt, m) {
			return true
		}
	}
	return false
}
