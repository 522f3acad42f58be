package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"clarita-backend/internal/apperrors"
	"clarita-backend/internal/model"
	"clarita-backend/internal/pdftext"
	"clarita-backend/internal/repository"
	logger "clarita-backend/pkg/logging"
)

// UploadStats is the size summary returned with a fresh upload.
type UploadStats struct {
	PageCount    int `json:"pageCount"`
	TotalChars   int `json:"totalChars"`
	AvgCharsPage int `json:"avgCharsPerPage"`
}

type UploadService interface {
	CreateUpload(userID uint, fileName string, data []byte, maxBytes int64) (*model.Upload, *UploadStats, error)
	GetOwnedUpload(userID, uploadID uint) (*model.Upload, error)
	GetUploadsByUser(userID uint) ([]model.Upload, error)
}

type uploadService struct {
	uploadRepo repository.UploadRepository
}

func NewUploadService(uploadRepo repository.UploadRepository) UploadService {
	return &uploadService{uploadRepo: uploadRepo}
}

// CreateUpload extracts per-page text from the PDF and persists the
// immutable upload row.
func (s *uploadService) CreateUpload(userID uint, fileName string, data []byte, maxBytes int64) (*model.Upload, *UploadStats, error) {
	if len(data) == 0 {
		return nil, nil, apperrors.Validation("uploaded file is empty")
	}
	if int64(len(data)) > maxBytes {
		return nil, nil, apperrors.Validation("file exceeds the %dMB upload limit", maxBytes>>20)
	}
	if !pdftext.IsPDF(data) {
		return nil, nil, apperrors.Validation("only PDF files are supported")
	}

	extraction, err := pdftext.Extract(data)
	if err != nil {
		return nil, nil, apperrors.Validation("could not read PDF: %v", err)
	}
	if extraction.TotalChars == 0 {
		return nil, nil, apperrors.Validation("no extractable text found in PDF")
	}

	upload := &model.Upload{
		UserID:     userID,
		FileName:   fileName,
		FileSize:   int64(len(data)),
		PageCount:  extraction.PageCount,
		TextByPage: model.MustJSON(extraction.Pages),
		UploadedAt: time.Now(),
	}
	if err := s.uploadRepo.CreateUpload(upload); err != nil {
		return nil, nil, apperrors.Persistence("create upload", err)
	}

	stats := &UploadStats{
		PageCount:  extraction.PageCount,
		TotalChars: extraction.TotalChars,
	}
	if extraction.PageCount > 0 {
		stats.AvgCharsPage = extraction.TotalChars / extraction.PageCount
	}

	logger.Info("stored upload %d (%s, %d pages, %d chars) for user %d",
		upload.ID, fileName, extraction.PageCount, extraction.TotalChars, userID)
	return upload, stats, nil
}

// GetOwnedUpload loads an upload and enforces ownership: a missing row is
// not-found, someone else's row is forbidden.
func (s *uploadService) GetOwnedUpload(userID, uploadID uint) (*model.Upload, error) {
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

func (s *uploadService) GetUploadsByUser(userID uint) ([]model.Upload, error) {
	uploads, err := s.uploadRepo.GetUploadsByUser(userID)
	if err != nil {
		return nil, apperrors.Persistence("list uploads", err)
	}
	return uploads, nil
}
