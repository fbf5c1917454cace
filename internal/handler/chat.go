package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"privacy-chat/internal/hub"
	"privacy-chat/internal/models"
	"privacy-chat/internal/repository"
	"privacy-chat/internal/visibility"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler interface {
	Upload(c *gin.Context)
	GetFile(c *gin.Context)
	ListMessages(c *gin.Context)
	ToggleStatus(c *gin.Context)
	GetUsers(c *gin.Context)
}

type chatHandler struct {
	messageRepo repository.MessageRepository
	fileRepo    repository.FileRepository
	hub         *hub.Hub
	logger      *zap.Logger
}

func NewChatHandler(messageRepo repository.MessageRepository, fileRepo repository.FileRepository, h *hub.Hub, logger *zap.Logger) ChatHandler {
	return &chatHandler{
		messageRepo: messageRepo,
		fileRepo:    fileRepo,
		hub:         h,
		logger:      logger,
	}
}

// Upload handles POST /upload: stores the attachment and its message,
// then broadcasts the message to every connection.
func (h *chatHandler) Upload(c *gin.Context) {
	sender := c.PostForm("sender")
	if sender == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sender is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Validated before either row is written so a rejected request
	// leaves nothing behind.
	status := c.DefaultPostForm("status", models.StatusValid)
	if !models.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status. Valid values: valid, invalid"})
		return
	}

	file := &models.StoredFile{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Sender:      sender,
		Data:        data,
	}
	if err := h.fileRepo.SaveFile(file); err != nil {
		h.logger.Error("Failed to save file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	var receiver *string
	if r := c.PostForm("receiver"); r != "" {
		receiver = &r
	}

	msg := &models.Message{
		Sender:      sender,
		Text:        c.PostForm("text"),
		FileID:      &file.ID,
		Filename:    &file.Filename,
		ContentType: &file.ContentType,
		Private:     c.PostForm("private") == "true",
		Receiver:    receiver,
		Status:      status,
	}
	if err := h.messageRepo.SaveMessage(msg); err != nil {
		h.logger.Error("Failed to save upload message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	h.hub.BroadcastPersonalized(models.EnvelopeMessage, msg)

	c.JSON(http.StatusOK, gin.H{"message_id": msg.ID, "file_id": file.ID})
}

// GetFile handles GET /file/:id. Image payloads the viewer is not
// eligible to see are blurred per request; the stored bytes are never
// touched. Ineligible non-image payloads are denied outright since they
// cannot be visually redacted.
func (h *chatHandler) GetFile(c *gin.Context) {
	id := c.Param("id")
	viewer := c.Query("viewer")

	file, err := h.fileRepo.GetFileByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		h.logger.Error("Failed to get file", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve file"})
		return
	}

	data := file.Data
	msg, err := h.messageRepo.GetMessageByFileID(id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.logger.Error("Failed to get message for file", zap.String("file_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve file"})
		return
	}

	if msg != nil {
		res := visibility.Resolve(msg, viewer)
		if res.MustRedact {
			blurred, err := visibility.Redact(data)
			if err != nil {
				h.logger.Error("Failed to redact image", zap.String("file_id", id), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve file"})
				return
			}
			data = blurred
		} else if res.Restricted {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to view this file"})
			return
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", file.Filename))
	c.Data(http.StatusOK, file.ContentType, data)
}

// ListMessages handles GET /messages with per-viewer status rewriting.
func (h *chatHandler) ListMessages(c *gin.Context) {
	viewer := c.Query("viewer")

	messages, err := h.messageRepo.ListMessages()
	if err != nil {
		h.logger.Error("Failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	annotated := make([]*models.Message, 0, len(messages))
	for _, msg := range messages {
		annotated = append(annotated, visibility.Annotate(msg, viewer))
	}

	c.JSON(http.StatusOK, annotated)
}

// ToggleStatus handles POST /toggle_status/:id. Any connected identity
// may toggle any message; there is deliberately no ownership check.
type ToggleStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *chatHandler) ToggleStatus(c *gin.Context) {
	id := c.Param("id")

	var req ToggleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind JSON for status toggle", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status. Valid values: valid, invalid"})
		return
	}

	msg, err := h.messageRepo.UpdateStatus(id, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		h.logger.Error("Failed to update message status", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	h.hub.BroadcastPersonalized(models.EnvelopeStatusUpdate, msg)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": visibility.Annotate(msg, c.Query("viewer"))})
}

// GetUsers handles GET /users.
func (h *chatHandler) GetUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Usernames())
}
