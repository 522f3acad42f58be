package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clarita-backend/internal/service"
	"clarita-backend/utilities"
)

type UserController struct {
	quizService  service.QuizService
	statsService service.StatsService
}

func NewUserController(quizService service.QuizService, statsService service.StatsService) *UserController {
	return &UserController{quizService: quizService, statsService: statsService}
}

// Statistics returns the derived attempt summary, recomputed on every
// request.
func (ctrl *UserController) Statistics(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	stats, err := ctrl.statsService.GetStatistics(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ctrl *UserController) ListQuizzes(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	quizzes, err := ctrl.quizService.GetQuizzesByUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (ctrl *UserController) ListQuizFolders(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	folders, err := ctrl.quizService.GetFoldersByUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, folders)
}
