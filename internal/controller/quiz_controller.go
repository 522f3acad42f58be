package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"clarita-backend/internal/service"
	"clarita-backend/utilities"
)

type QuizController struct {
	quizService   service.QuizService
	exportService service.ExportService
}

func NewQuizController(quizService service.QuizService, exportService service.ExportService) *QuizController {
	return &QuizController{quizService: quizService, exportService: exportService}
}

// Create runs the generation contract against an upload and persists the
// resulting quiz. The generator call can take tens of seconds.
func (ctrl *QuizController) Create(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		UploadID      uint     `json:"uploadId" binding:"required"`
		NumQuestions  int      `json:"numQuestions" binding:"required"`
		QuestionTypes []string `json:"questionTypes" binding:"required"`
		Name          string   `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	quiz, err := ctrl.quizService.GenerateQuiz(c.Request.Context(), userID, req.UploadID, req.NumQuestions, req.QuestionTypes, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"quizId":    quiz.ID,
		"questions": quiz.Questions,
		"meta":      quiz.Meta,
	})
}

func (ctrl *QuizController) Get(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}
	quiz, err := ctrl.quizService.GetOwnedQuiz(userID, quizID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (ctrl *QuizController) Patch(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var upd service.QuizUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	quiz, err := ctrl.quizService.UpdateQuiz(userID, quizID, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (ctrl *QuizController) Delete(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.quizService.DeleteQuiz(userID, quizID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "quiz deleted"})
}

func (ctrl *QuizController) Regenerate(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}
	quiz, err := ctrl.quizService.RegenerateQuiz(c.Request.Context(), userID, quizID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// Export streams the quiz as a printable PDF with an answer key.
func (ctrl *QuizController) Export(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}
	quiz, err := ctrl.quizService.GetOwnedQuiz(userID, quizID)
	if err != nil {
		respondError(c, err)
		return
	}

	pdfBytes, err := ctrl.exportService.ExportQuizPDF(quiz)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=quiz_%d.pdf", quiz.ID))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
