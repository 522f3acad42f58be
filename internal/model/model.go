package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"password,omitempty"` // Exclude from JSON responses
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Upload holds a stored PDF's extracted per-page text plus file metadata.
// Rows are immutable after creation; many quizzes may reference one upload.
type Upload struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     uint           `json:"user_id" gorm:"not null;index"`
	FileName   string         `json:"file_name" gorm:"not null"`
	FileSize   int64          `json:"file_size"`
	PageCount  int            `json:"page_count"`
	TextByPage datatypes.JSON `json:"-"` // ordered list of per-page text
	UploadedAt time.Time      `json:"uploaded_at"`
}

// PageTexts decodes the stored per-page text in page order.
func (u *Upload) PageTexts() ([]string, error) {
	var pages []string
	if len(u.TextByPage) == 0 {
		return pages, nil
	}
	err := json.Unmarshal(u.TextByPage, &pages)
	return pages, err
}

// Quiz owns an ordered list of questions plus one meta snapshot. Name,
// folder and tags are user-assigned and mutable independent of the
// questions; questions and meta are replaced wholesale on regeneration.
type Quiz struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"not null;index"`
	UploadID  uint           `json:"upload_id" gorm:"not null;index"`
	Name      string         `json:"name"`
	Folder    string         `json:"folder"`
	Tags      datatypes.JSON `json:"tags"` // JSON array of strings
	Questions []Question     `json:"questions" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
	Meta      datatypes.JSON `json:"meta"`
	Attempts  []QuizAttempt  `json:"-" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Question is one quiz item as persisted. Options, answer and citations
// keep their wire shape as JSON columns; the typed view lives in the
// quizgen package.
type Question struct {
	ID          uint           `json:"-" gorm:"primaryKey"`
	QuizID      uint           `json:"-" gorm:"not null;index"`
	PublicID    string         `json:"id" gorm:"not null"`
	Position    int            `json:"-" gorm:"not null"`
	Type        string         `json:"type" gorm:"not null"`
	Prompt      string         `json:"prompt" gorm:"not null"`
	Options     datatypes.JSON `json:"options"`
	Answer      datatypes.JSON `json:"answer"` // number | boolean | string, keyed by Type
	Explanation string         `json:"explanation"`
	Citations   datatypes.JSON `json:"citations"`
	CreatedAt   time.Time      `json:"-"`
	UpdatedAt   time.Time      `json:"-"`
}

// QuizAttempt is an immutable record of one completed submission.
type QuizAttempt struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	QuizID         uint           `json:"quiz_id" gorm:"not null;index"`
	UserID         uint           `json:"user_id" gorm:"not null;index"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	Percentage     float64        `json:"percentage"`
	Answers        datatypes.JSON `json:"answers"`
	CompletedAt    time.Time      `json:"completed_at"`
	CreatedAt      time.Time      `json:"-"`
}

// AttemptAnswer is one entry of QuizAttempt.Answers. UserAnswer and
// CorrectAnswer keep the polymorphic wire shape of the question's answer.
type AttemptAnswer struct {
	QuestionID    string          `json:"questionId"`
	UserAnswer    json.RawMessage `json:"userAnswer"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	IsCorrect     bool            `json:"isCorrect"`
}

// AttemptAnswers decodes the stored answer list.
func (a *QuizAttempt) AttemptAnswers() ([]AttemptAnswer, error) {
	var out []AttemptAnswer
	if len(a.Answers) == 0 {
		return out, nil
	}
	err := json.Unmarshal(a.Answers, &out)
	return out, err
}

// MustJSON marshals v into a JSON column value. Only used with values
// that cannot fail to marshal (slices and maps of plain types).
func MustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}
