package handlers

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/projectnav/navigator/internal/config"
	"github.com/projectnav/navigator/internal/middleware"
	"github.com/projectnav/navigator/internal/models"
	"github.com/projectnav/navigator/internal/services"
	"github.com/projectnav/navigator/pkg/logger"
	"github.com/projectnav/navigator/pkg/response"
	"gorm.io/gorm"
)

type UploadHandler struct {
	db             *gorm.DB
	projectService *services.ProjectService
	chatService    *services.ChatService
	maxSize        int64
}

func NewUploadHandler(db *gorm.DB, llm services.ChatCompleter, cfg *config.UploadConfig) *UploadHandler {
	return &UploadHandler{
		db:             db,
		projectService: services.NewProjectService(db),
		chatService:    services.NewChatService(db, llm),
		maxSize:        int64(cfg.MaxSizeMB) << 20,
	}
}

// UploadPDF ingests a PDF: extracts its text and stores a truncated excerpt
// both as a project document and as a transcript entry
// POST /upload-pdf
func (h *UploadHandler) UploadPDF(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		// Older clients send the file under "pdfFile".
		fileHeader, err = c.FormFile("pdfFile")
	}
	if err != nil {
		response.BadRequest(c, "no file uploaded")
		return
	}

	projectID, err := strconv.ParseUint(c.PostForm("projectId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	if fileHeader.Size > h.maxSize {
		response.BadRequest(c, fmt.Sprintf("file exceeds %d MB limit", h.maxSize>>20))
		return
	}

	ownerID := middleware.GetUserID(c)
	project, err := h.projectService.GetOwned(ownerID, uint(projectID))
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, response.NewInternalError(err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, response.NewInternalError(err))
		return
	}

	text, err := services.ExtractPDFText(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.Error().Err(err).Str("file", fileHeader.Filename).Msg("pdf extraction failed")
		response.BadRequest(c, "failed to process PDF")
		return
	}

	excerpt := services.Excerpt(text)

	document := models.Document{
		ProjectID: project.ID,
		Name:      fileHeader.Filename,
		Phase:     project.CurrentPhase,
		Excerpt:   excerpt,
	}
	if err := h.db.Create(&document).Error; err != nil {
		response.Error(c, response.NewInternalError(err))
		return
	}

	note := fmt.Sprintf("Uploaded document %q:\n%s", fileHeader.Filename, excerpt)
	if err := h.chatService.AppendNote(ownerID, project.ID, note); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(200, gin.H{"extractedText": excerpt, "document": document})
}
