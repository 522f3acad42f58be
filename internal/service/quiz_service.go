package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"clarita-backend/internal/apperrors"
	"clarita-backend/internal/config"
	"clarita-backend/internal/llm"
	"clarita-backend/internal/model"
	"clarita-backend/internal/quizgen"
	"clarita-backend/internal/repository"
	logger "clarita-backend/pkg/logging"
	"clarita-backend/utilities"
)

// QuizUpdate carries a partial quiz update. Pointer fields distinguish
// "leave unchanged" (nil) from "set to this value" — an empty string
// clears the field.
type QuizUpdate struct {
	Name      *string             `json:"name"`
	Folder    *string             `json:"folder"`
	Tags      *[]string           `json:"tags"`
	Questions *[]quizgen.Question `json:"questions"`
}

type QuizService interface {
	GenerateQuiz(ctx context.Context, userID, uploadID uint, numQuestions int, questionTypes []string, name string) (*model.Quiz, error)
	GetOwnedQuiz(userID, quizID uint) (*model.Quiz, error)
	UpdateQuiz(userID, quizID uint, upd QuizUpdate) (*model.Quiz, error)
	DeleteQuiz(userID, quizID uint) error
	RegenerateQuiz(ctx context.Context, userID, quizID uint) (*model.Quiz, error)
	GetQuizzesByUser(userID uint) ([]model.Quiz, error)
	GetFoldersByUser(userID uint) ([]string, error)
	AnswerKey(quiz *model.Quiz) (map[string]quizgen.Answer, error)
}

type quizService struct {
	quizRepo   repository.QuizRepository
	uploadRepo repository.UploadRepository
	generator  llm.Generator
	bus        *utilities.EventBus
}

func NewQuizService(quizRepo repository.QuizRepository, uploadRepo repository.UploadRepository, generator llm.Generator, bus *utilities.EventBus) QuizService {
	return &quizService{
		quizRepo:   quizRepo,
		uploadRepo: uploadRepo,
		generator:  generator,
		bus:        bus,
	}
}

// GenerateQuiz runs the generation contract against an upload's page
// texts and persists the resulting quiz atomically. Nothing is stored if
// generation or validation fails.
func (s *quizService) GenerateQuiz(ctx context.Context, userID, uploadID uint, numQuestions int, questionTypes []string, name string) (*model.Quiz, error) {
	enabled, err := parseEnabledTypes(questionTypes)
	if err != nil {
		return nil, err
	}
	if limit := maxQuizQuestions(); numQuestions > limit {
		return nil, apperrors.Validation("numQuestions must not exceed %d", limit)
	}

	upload, err := s.ownedUpload(userID, uploadID)
	if err != nil {
		return nil, err
	}

	result, err := s.runGeneration(ctx, upload, numQuestions, enabled)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		name = defaultQuizName(upload.FileName)
	}

	quiz := &model.Quiz{
		UserID:    userID,
		UploadID:  uploadID,
		Name:      name,
		Tags:      model.MustJSON([]string{}),
		Questions: toQuestionRows(result.Questions),
		Meta:      model.MustJSON(result.Meta),
	}
	if err := s.quizRepo.CreateQuiz(quiz); err != nil {
		return nil, apperrors.Persistence("create quiz", err)
	}

	s.bus.Publish(utilities.EventQuizGenerated, quiz.ID)
	logger.Info("generated quiz %d (%d questions) for user %d from upload %d",
		quiz.ID, len(quiz.Questions), userID, uploadID)
	return quiz, nil
}

// runGeneration is the full pipeline: distribution, prompt, generator
// call, strict validation.
func (s *quizService) runGeneration(ctx context.Context, upload *model.Upload, n int, enabled []quizgen.QuestionType) (*quizgen.Result, error) {
	dist, err := quizgen.TargetDistribution(n, enabled)
	if err != nil {
		return nil, err
	}

	pages, err := upload.PageTexts()
	if err != nil {
		return nil, apperrors.Persistence("decode upload pages", err)
	}
	if len(pages) == 0 {
		return nil, apperrors.Validation("upload has no extracted text")
	}

	prompt := quizgen.BuildPrompt(pages, n, enabled, dist)
	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		var ue *apperrors.UpstreamError
		if errors.As(err, &ue) {
			return nil, err
		}
		return nil, apperrors.Upstream("generator call failed", false, err)
	}

	return quizgen.ParseAndValidate(raw, n, enabled, dist, upload.ID, time.Now())
}

func (s *quizService) GetOwnedQuiz(userID, quizID uint) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetQuizByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("quiz")
		}
		return nil, apperrors.Persistence("load quiz", err)
	}
	if quiz.UserID != userID {
		return nil, apperrors.Forbidden("quiz belongs to another user")
	}
	return quiz, nil
}

// UpdateQuiz applies a partial update. Organizational fields change in
// place; a provided question set is re-validated with the per-question
// hard rules and replaces the stored set wholesale.
func (s *quizService) UpdateQuiz(userID, quizID uint, upd QuizUpdate) (*model.Quiz, error) {
	quiz, err := s.GetOwnedQuiz(userID, quizID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if upd.Name != nil {
		updates["name"] = *upd.Name
	}
	if upd.Folder != nil {
		updates["folder"] = *upd.Folder
	}
	if upd.Tags != nil {
		updates["tags"] = model.MustJSON(*upd.Tags)
	}
	if len(updates) > 0 {
		if err := s.quizRepo.UpdateQuizFields(quizID, updates); err != nil {
			return nil, apperrors.Persistence("update quiz", err)
		}
	}

	if upd.Questions != nil {
		result, err := revalidateQuestions(*upd.Questions, quiz.UploadID)
		if err != nil {
			return nil, err
		}
		meta := model.MustJSON(result.Meta)
		if err := s.quizRepo.ReplaceQuestions(quizID, toQuestionRows(result.Questions), meta); err != nil {
			return nil, apperrors.Persistence("replace questions", err)
		}
	}

	return s.GetOwnedQuiz(userID, quizID)
}

func (s *quizService) DeleteQuiz(userID, quizID uint) error {
	if _, err := s.GetOwnedQuiz(userID, quizID); err != nil {
		return err
	}
	if err := s.quizRepo.DeleteQuiz(quizID); err != nil {
		return apperrors.Persistence("delete quiz", err)
	}
	logger.Info("deleted quiz %d and its attempts for user %d", quizID, userID)
	return nil
}

// RegenerateQuiz re-derives the generation parameters from the stored
// quiz, re-runs the contract against the original upload and replaces
// questions and meta in place. Stored state is untouched on any failure.
func (s *quizService) RegenerateQuiz(ctx context.Context, userID, quizID uint) (*model.Quiz, error) {
	quiz, err := s.GetOwnedQuiz(userID, quizID)
	if err != nil {
		return nil, err
	}

	n := len(quiz.Questions)
	if n == 0 {
		return nil, apperrors.Validation("quiz has no questions to regenerate")
	}

	enabled := enabledTypesFromQuiz(quiz)
	if len(enabled) == 0 {
		return nil, apperrors.Validation("quiz has no recognizable question types")
	}

	upload, err := s.uploadRepo.GetUploadByID(quiz.UploadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("original upload")
		}
		return nil, apperrors.Persistence("load upload", err)
	}

	result, err := s.runGeneration(ctx, upload, n, enabled)
	if err != nil {
		return nil, err
	}

	if err := s.quizRepo.ReplaceQuestions(quizID, toQuestionRows(result.Questions), model.MustJSON(result.Meta)); err != nil {
		return nil, apperrors.Persistence("replace questions", err)
	}

	s.bus.Publish(utilities.EventQuizRegenerated, quizID)
	return s.GetOwnedQuiz(userID, quizID)
}

func (s *quizService) GetQuizzesByUser(userID uint) ([]model.Quiz, error) {
	quizzes, err := s.quizRepo.GetQuizzesByUser(userID)
	if err != nil {
		return nil, apperrors.Persistence("list quizzes", err)
	}
	return quizzes, nil
}

func (s *quizService) GetFoldersByUser(userID uint) ([]string, error) {
	folders, err := s.quizRepo.GetFoldersByUser(userID)
	if err != nil {
		return nil, apperrors.Persistence("list folders", err)
	}
	return folders, nil
}

// AnswerKey maps question public ids to their typed answers.
func (s *quizService) AnswerKey(quiz *model.Quiz) (map[string]quizgen.Answer, error) {
	key := make(map[string]quizgen.Answer, len(quiz.Questions))
	for _, row := range quiz.Questions {
		var answer quizgen.Answer
		if err := json.Unmarshal(row.Answer, &answer); err != nil {
			return nil, fmt.Errorf("question %s: %w", row.PublicID, err)
		}
		key[row.PublicID] = answer
	}
	return key, nil
}

func (s *quizService) ownedUpload(userID, uploadID uint) (*model.Upload, error) {
	upload, err := s.uploadRepo.GetUploadByID(uploadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("upload")
		}
		return nil, apperrors.Persistence("load upload", err)
	}
	if upload.UserID != userID {
		return nil, apperrors.Forbidden("upload belongs to another user")
	}
	return upload, nil
}

func parseEnabledTypes(raw []string) ([]quizgen.QuestionType, error) {
	if len(raw) == 0 {
		return nil, apperrors.Validation("at least one question type must be enabled")
	}
	var enabled []quizgen.QuestionType
	seen := map[quizgen.QuestionType]bool{}
	for _, r := range raw {
		t, ok := quizgen.ParseQuestionType(r)
		if !ok {
			return nil, apperrors.Validation("unknown question type %q", r)
		}
		if !seen[t] {
			seen[t] = true
			enabled = append(enabled, t)
		}
	}
	return enabled, nil
}

// enabledTypesFromQuiz recovers the enabled-type set from the stored
// meta (types with non-zero counts), falling back to the question rows
// when the meta is unreadable.
func enabledTypesFromQuiz(quiz *model.Quiz) []quizgen.QuestionType {
	var meta quizgen.Meta
	if len(quiz.Meta) > 0 && json.Unmarshal(quiz.Meta, &meta) == nil && len(meta.CountsByType) > 0 {
		var enabled []quizgen.QuestionType
		for _, t := range quizgen.AllTypes {
			if meta.CountsByType[t] > 0 {
				enabled = append(enabled, t)
			}
		}
		if len(enabled) > 0 {
			return enabled
		}
	}

	present := map[quizgen.QuestionType]bool{}
	for _, row := range quiz.Questions {
		if t, ok := quizgen.ParseQuestionType(row.Type); ok {
			present[t] = true
		}
	}
	var enabled []quizgen.QuestionType
	for _, t := range quizgen.AllTypes {
		if present[t] {
			enabled = append(enabled, t)
		}
	}
	return enabled
}

// revalidateQuestions reuses the generation contract's hard rules for a
// client-edited question set.
func revalidateQuestions(questions []quizgen.Question, uploadID uint) (*quizgen.Result, error) {
	if len(questions) == 0 {
		return nil, apperrors.Validation("questions cannot be empty")
	}
	raw, err := json.Marshal(map[string]interface{}{"questions": questions})
	if err != nil {
		return nil, apperrors.Validation("malformed questions: %v", err)
	}
	return quizgen.ParseAndValidate(raw, len(questions), quizgen.AllTypes, nil, uploadID, time.Now())
}

func toQuestionRows(questions []quizgen.Question) []model.Question {
	rows := make([]model.Question, 0, len(questions))
	for i, q := range questions {
		rows = append(rows, model.Question{
			PublicID:    q.ID,
			Position:    i,
			Type:        string(q.Type),
			Prompt:      q.Prompt,
			Options:     model.MustJSON(q.Options),
			Answer:      model.MustJSON(q.Answer),
			Explanation: q.Explanation,
			Citations:   model.MustJSON(q.Citations),
		})
	}
	return rows
}

// maxQuizQuestions reads the configured cap, falling back to the
// default when no config is loaded (tests).
func maxQuizQuestions() int {
	if cfg := config.GetConfig(); cfg != nil {
		return cfg.MaxQuizQuestions()
	}
	return 50
}

func defaultQuizName(fileName string) string {
	base := fileName
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	if base == "" {
		base = "Untitled"
	}
	return base + " quiz"
}
