package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"clarita-backend/internal/apperrors"
	"clarita-backend/internal/db"
	"clarita-backend/internal/model"
	"clarita-backend/internal/quizgen"
	"clarita-backend/internal/repository"
	"clarita-backend/utilities"
)

// stubGenerator returns a canned payload (or error) instead of calling
// the real model.
type stubGenerator struct {
	payload json.RawMessage
	err     error
	calls   int
}

func (g *stubGenerator) Generate(_ context.Context, _ string) (json.RawMessage, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.payload, nil
}

func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("access test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(
		&model.User{},
		&model.Upload{},
		&model.Quiz{},
		&model.Question{},
		&model.QuizAttempt{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	db.SetDB(conn)
	t.Cleanup(func() {
		db.SetDB(nil)
		sqlDB.Close()
	})
}

func seedUpload(t *testing.T, userID uint) *model.Upload {
	t.Helper()
	upload := &model.Upload{
		UserID:     userID,
		FileName:   "networks.pdf",
		FileSize:   2048,
		PageCount:  2,
		TextByPage: model.MustJSON([]string{"page one text about routing", "page two text about transport"}),
	}
	if err := db.GetDB().Create(upload).Error; err != nil {
		t.Fatalf("seed upload: %v", err)
	}
	return upload
}

// genPayload builds a generator response with one question per given type.
func genPayload(t *testing.T, types ...quizgen.QuestionType) json.RawMessage {
	t.Helper()
	questions := make([]map[string]interface{}, 0, len(types))
	for i, typ := range types {
		q := map[string]interface{}{
			"id":          fmt.Sprintf("q%d", i+1),
			"type":        string(typ),
			"prompt":      fmt.Sprintf("Question %d ______", i+1),
			"options":     []string{},
			"explanation": "because",
			"citations":   []map[string]interface{}{{"page": 1, "snippet": "routing"}},
		}
		switch typ {
		case quizgen.TypeMCQ:
			q["options"] = []string{"a", "b", "c", "d"}
			q["answer"] = 2
		case quizgen.TypeTF:
			q["answer"] = true
		case quizgen.TypeFill:
			q["answer"] = "routing"
		}
		questions = append(questions, q)
	}
	raw, err := json.Marshal(map[string]interface{}{"questions": questions})
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	return raw
}

func newQuizServiceForTest(gen *stubGenerator) QuizService {
	return NewQuizService(repository.NewQuizRepository(), repository.NewUploadRepository(), gen, utilities.NewEventBus())
}

func TestGenerateQuiz(t *testing.T) {
	setupTestDB(t)
	upload := seedUpload(t, 1)
	gen := &stubGenerator{payload: genPayload(t, quizgen.TypeMCQ, quizgen.TypeTF, quizgen.TypeFill)}
	svc := newQuizServiceForTest(gen)

	quiz, err := svc.GenerateQuiz(context.Background(), 1, upload.ID, 3, []string{"mcq", "tf", "fill"}, "")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
	if quiz.Name != "networks quiz" {
		t.Errorf("default name = %q, want %q", quiz.Name, "networks quiz")
	}
	if len(quiz.Questions) != 3 {
		t.Fatalf("stored %d questions, want 3", len(quiz.Questions))
	}

	var meta quizgen.Meta
	if err := json.Unmarshal(quiz.Meta, &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if meta.UploadID != upload.ID {
		t.Errorf("meta upload id = %d, want %d", meta.UploadID, upload.ID)
	}
	sum := 0
	for _, c := range meta.CountsByType {
		sum += c
	}
	if sum != 3 {
		t.Errorf("meta counts sum to %d, want 3", sum)
	}
}

func TestGenerateQuizRejectsInvalidPayloadWithoutPersisting(t *testing.T) {
	setupTestDB(t)
	upload := seedUpload(t, 1)
	// Two questions when three were requested.
	gen := &stubGenerator{payload: genPayload(t, quizgen.TypeTF, quizgen.TypeFill)}
	svc := newQuizServiceForTest(gen)

	_, err := svc.GenerateQuiz(context.Background(), 1, upload.ID, 3, []string{"tf", "fill"}, "")
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected a validation error, got %v", err)
	}

	var count int64
	db.GetDB().Model(&model.Quiz{}).Count(&count)
	if count != 0 {
		t.Errorf("quiz persisted despite failed validation, count = %d", count)
	}
}

func TestGenerateQuizEnforcesQuestionCap(t *testing.T) {
	setupTestDB(t)
	upload := seedUpload(t, 1)
	gen := &stubGenerator{payload: genPayload(t, quizgen.TypeTF)}
	svc := newQuizServiceForTest(gen)

	_, err := svc.GenerateQuiz(context.Background(), 1, upload.ID, 51, []string{"tf"}, "")
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected a validation error for an oversize request, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times for a rejected request", gen.calls)
	}
}

func TestGenerateQuizQuotaError(t *testing.T) {
	setupTestDB(t)
	upload := seedUpload(t, 1)
	gen := &stubGenerator{err: apperrors.Upstream("generation quota exhausted", true, nil)}
	svc := newQuizServiceForTest(gen)

	_, err := svc.GenerateQuiz(context.Background(), 1, upload.ID, 2, []string{"tf"}, "")
	if !apperrors.IsQuota(err) {
		t.Fatalf("expected quota error to pass through, got %v", err)
	}
}

func TestOwnershipDistinguishes403From404(t *testing.T) {
	setupTestDB(t)
	upload := seedUpload(t, 1)
	gen := &stubGenerator{payload: genPayload(t, quizgen.TypeTF)}
	svc := newQuizServiceForTest(gen)

	quiz, err := svc.GenerateQuiz(context.Background(), 1, upload.ID, 1, []string{"tf"}, "")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}

	var forbidden *apperrors.AuthorizationError
	if _, err := svc.GetOwnedQuiz(2, quiz.ID); !errors.As(err, &forbidden) {
		t.Errorf("other user's fetch: expected authorization error, got %v", err)
	}

	var notFound *apperrors.NotFoundError
	if _, err := svc.GetOwnedQuiz(1, quiz.ID+999); !errors.As(err, &notFound) {
		t.Errorf("missing quiz: expected not-found error, got %v", err)
	}
}

func TestUpdateQuizPartialFields(t *testing.T) {
	setupTestDB(t)
	upload := seedUpload(t, 1)
	gen := &stubGenerator{payload: genPayload(t, quizgen.TypeTF, quizgen.TypeFill)}
	svc := newQuizServiceForTest(gen)

	quiz, err := svc.GenerateQuiz(context.Background(), 1, upload.ID, 2, []string{"tf", "fill"}, "My quiz")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}

	folder := "Semester 1"
	updated, err := svc.UpdateQuiz(1, quiz.ID, QuizUpdate{Folder: &folder})
	if err != nil {
		t.Fatalf("UpdateQuiz: %v", err)
	}
	if updated.Folder != "Semester 1" {
		t.Errorf("folder = %q, want %q", updated.Folder, "Semester 1")
	}
	if updated.Name != "My quiz" {
		t.Errorf("name changed to %q on a folder-only update", updated.Name)
	}
	if len(updated.Questions) != 2 {
		t.Errorf("questions changed on a folder-only update, now %d", len(updated.Questions))
	}

	// An empty string clears the field.
	empty := ""
	cleared, err := svc.UpdateQuiz(1, quiz.ID, QuizUpdate{Folder: &empty})
	if err != nil {
		t.Fatalf("UpdateQuiz clear: %v", err)
	}
	if cleared.Folder != "" {
		t.Errorf("folder = %q after clearing, want empty", cleared.Folder)
	}
}

func TestUpdateQuizRevalidatesQuestions(t *testing.T) {
	setupTestDB(t)
	upload := seedUpload(t, 1)
	gen := &stubGenerator{payload: genPayload(t, quizgen.TypeTF)}
	svc := newQuizServiceForTest(gen)

	quiz, err := svc.GenerateQuiz(context.Background(), 1, upload.ID, 1, []string{"tf"}, "")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}

	bad := []quizgen.Question{{
		ID:      "q1",
		Type:    quizgen.TypeMCQ,
		Prompt:  "Broken",
		Options: []string{"only", "three", "options"},
		Answer:  quizgen.IndexAnswer(0),
	}}
	var ve *apperrors.ValidationError
	if _, err := svc.UpdateQuiz(1, quiz.ID, QuizUpdate{Questions: &bad}); !errors.As(err, &ve) {
		t.Fatalf("expected validation error for bad question set, got %v", err)
	}

	good := []quizgen.Question{{
		ID:      "q1",
		Type:    quizgen.TypeMCQ,
		Prompt:  "Which is a transport protocol?",
		Options: []string{"TCP", "IP", "ARP", "ICMP"},
		Answer:  quizgen.IndexAnswer(0),
	}}
	updated, err := svc.UpdateQuiz(1, quiz.ID, QuizUpdate{Questions: &good})
	if err != nil {
		t.Fatalf("UpdateQuiz with valid questions: %v", err)
	}
	if len(updated.Questions) != 1 || updated.Questions[0].Type != "mcq" {
		t.Errorf("question set not replaced, got %+v", updated.Questions)
	}
}

func TestRegenerateQuizReplacesQuestionsInPlace(t *testing.T) {
	setupTestDB(t)
	upload := seedUpload(t, 1)
	gen := &stubGenerator{payload: genPayload(t, quizgen.TypeTF, quizgen.TypeFill)}
	svc := newQuizServiceForTest(gen)

	quiz, err := svc.GenerateQuiz(context.Background(), 1, upload.ID, 2, []string{"tf", "fill"}, "Keep me")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	folder := "Archive"
	if _, err := svc.UpdateQuiz(1, quiz.ID, QuizUpdate{Folder: &folder}); err != nil {
		t.Fatalf("UpdateQuiz: %v", err)
	}
	oldIDs := map[string]bool{}
	for _, q := range quiz.Questions {
		oldIDs[q.PublicID] = true
	}

	regen, err := svc.RegenerateQuiz(context.Background(), 1, quiz.ID)
	if err != nil {
		t.Fatalf("RegenerateQuiz: %v", err)
	}
	if gen.calls != 2 {
		t.Errorf("generator called %d times, want 2", gen.calls)
	}

	// Identity and organization survive; the question set is derived anew
	// from the same parameters.
	if regen.ID != quiz.ID || regen.UploadID != upload.ID {
		t.Errorf("regeneration changed identity: %+v", regen)
	}
	if regen.Name != "Keep me" || regen.Folder != "Archive" {
		t.Errorf("regeneration changed organization: name=%q folder=%q", regen.Name, regen.Folder)
	}
	if len(regen.Questions) != 2 {
		t.Errorf("regenerated %d questions, want 2", len(regen.Questions))
	}

	var rows int64
	db.GetDB().Model(&model.Question{}).Where("quiz_id = ?", quiz.ID).Count(&rows)
	if rows != 2 {
		t.Errorf("question rows = %d after regeneration, want 2", rows)
	}
}

func TestRegenerateQuizFailureLeavesQuizUntouched(t *testing.T) {
	setupTestDB(t)
	upload := seedUpload(t, 1)
	gen := &stubGenerator{payload: genPayload(t, quizgen.TypeTF)}
	svc := newQuizServiceForTest(gen)

	quiz, err := svc.GenerateQuiz(context.Background(), 1, upload.ID, 1, []string{"tf"}, "")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	originalID := quiz.Questions[0].PublicID

	gen.err = apperrors.Upstream("model unavailable", false, nil)
	if _, err := svc.RegenerateQuiz(context.Background(), 1, quiz.ID); err == nil {
		t.Fatal("expected regeneration failure")
	}

	after, err := svc.GetOwnedQuiz(1, quiz.ID)
	if err != nil {
		t.Fatalf("GetOwnedQuiz: %v", err)
	}
	if len(after.Questions) != 1 || after.Questions[0].PublicID != originalID {
		t.Errorf("failed regeneration modified stored questions: %+v", after.Questions)
	}
}

func TestDeleteQuizRemovesAttempts(t *testing.T) {
	setupTestDB(t)
	upload := seedUpload(t, 1)
	gen := &stubGenerator{payload: genPayload(t, quizgen.TypeTF)}
	svc := newQuizServiceForTest(gen)

	quiz, err := svc.GenerateQuiz(context.Background(), 1, upload.ID, 1, []string{"tf"}, "")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	attempt := &model.QuizAttempt{QuizID: quiz.ID, UserID: 1, Score: 1, TotalQuestions: 1, Percentage: 100, Answers: model.MustJSON([]model.AttemptAnswer{})}
	if err := db.GetDB().Create(attempt).Error; err != nil {
		t.Fatalf("seed attempt: %v", err)
	}

	if err := svc.DeleteQuiz(1, quiz.ID); err != nil {
		t.Fatalf("DeleteQuiz: %v", err)
	}

	var quizzes, questions, attempts int64
	db.GetDB().Model(&model.Quiz{}).Count(&quizzes)
	db.GetDB().Model(&model.Question{}).Count(&questions)
	db.GetDB().Model(&model.QuizAttempt{}).Count(&attempts)
	if quizzes != 0 || questions != 0 || attempts != 0 {
		t.Errorf("leftovers after delete: quizzes=%d questions=%d attempts=%d", quizzes, questions, attempts)
	}

	// The upload itself survives.
	var uploads int64
	db.GetDB().Model(&model.Upload{}).Count(&uploads)
	if uploads != 1 {
		t.Errorf("upload rows = %d after quiz delete, want 1", uploads)
	}
}

func TestGetFoldersByUser(t *testing.T) {
	setupTestDB(t)
	upload := seedUpload(t, 1)
	gen := &stubGenerator{payload: genPayload(t, quizgen.TypeTF)}
	svc := newQuizServiceForTest(gen)

	for _, folder := range []string{"Biology", "", "Biology", "Chemistry"} {
		quiz, err := svc.GenerateQuiz(context.Background(), 1, upload.ID, 1, []string{"tf"}, "")
		if err != nil {
			t.Fatalf("GenerateQuiz: %v", err)
		}
		if folder != "" {
			f := folder
			if _, err := svc.UpdateQuiz(1, quiz.ID, QuizUpdate{Folder: &f}); err != nil {
				t.Fatalf("UpdateQuiz: %v", err)
			}
		}
	}

	folders, err := svc.GetFoldersByUser(1)
	if err != nil {
		t.Fatalf("GetFoldersByUser: %v", err)
	}
	want := []string{"Biology", "Chemistry"}
	if len(folders) != len(want) {
		t.Fatalf("folders = %v, want %v", folders, want)
	}
	for i := range want {
		if folders[i] != want[i] {
			t.Errorf("folders = %v, want %v", folders, want)
		}
	}
}
