package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clarita-backend/internal/service"
	"clarita-backend/utilities"
)

type AttemptController struct {
	attemptService service.AttemptService
}

func NewAttemptController(attemptService service.AttemptService) *AttemptController {
	return &AttemptController{attemptService: attemptService}
}

func (ctrl *AttemptController) Submit(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var sub service.AttemptSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	attempt, err := ctrl.attemptService.SubmitAttempt(userID, sub)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attempt)
}

func (ctrl *AttemptController) Latest(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}
	attempt, err := ctrl.attemptService.GetLatestAttempt(userID, quizID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

func (ctrl *AttemptController) ListByQuiz(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	quizID, ok := pathID(c, "id")
	if !ok {
		return
	}
	attempts, err := ctrl.attemptService.GetAttemptsByQuiz(userID, quizID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}
