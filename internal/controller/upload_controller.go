package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"clarita-backend/internal/config"
	"clarita-backend/internal/service"
	"clarita-backend/utilities"
)

type UploadController struct {
	uploadService service.UploadService
}

func NewUploadController(uploadService service.UploadService) *UploadController {
	return &UploadController{uploadService: uploadService}
}

// Upload accepts a multipart PDF, extracts its text and stores the
// immutable upload row.
func (ctrl *UploadController) Upload(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	maxBytes := config.GetConfig().MaxUploadBytes()
	if fileHeader.Size > maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds the upload size limit"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	upload, stats, err := ctrl.uploadService.CreateUpload(userID, fileHeader.Filename, data, maxBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"uploadId":  upload.ID,
		"fileName":  upload.FileName,
		"fileSize":  upload.FileSize,
		"pageCount": upload.PageCount,
		"stats":     stats,
	})
}

func (ctrl *UploadController) ListUploads(c *gin.Context) {
	userID, ok := utilities.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	uploads, err := ctrl.uploadService.GetUploadsByUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, uploads)
}
