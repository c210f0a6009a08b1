package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MihaiVoinica/AdminBloc/internal/services"
)

// FileHandler handles building documents.
type FileHandler struct {
	fileService services.IFileService
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(fileService services.IFileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// List handles GET /files/list.
func (h *FileHandler) List(c *gin.Context) {
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	files, err := h.fileService.ListFiles(c.Request.Context(), requesterID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

type createFileRequest struct {
	BuildingID   string `json:"buildingId" binding:"required"`
	Name         string `json:"name" binding:"required"`
	OriginalName string `json:"originalname" binding:"required"`
	ContentType  string `json:"contentType" binding:"required"`
}

// Create handles POST /files/create. Returns the metadata record and
// a pre-signed URL the client uploads the content to.
func (h *FileHandler) Create(c *gin.Context) {
	var req createFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	buildingID, err := parseObjectID(req.BuildingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid buildingId format"})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	upload, err := h.fileService.CreateFile(c.Request.Context(), buildingID, requesterID, role, req.Name, req.OriginalName, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, upload)
}

// Download handles GET /files/download?fileId=... and returns a
// short-lived pre-signed URL.
func (h *FileHandler) Download(c *gin.Context) {
	fileID, err := parseObjectID(c.Query("fileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fileId format"})
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	url, err := h.fileService.DownloadURL(c.Request.Context(), fileID, requesterID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Remove handles PATCH /files/remove/:fileId.
func (h *FileHandler) Remove(c *gin.Context) {
	fileID, ok := objectIDParam(c, "fileId")
	if !ok {
		return
	}
	requesterID, role, ok := requester(c)
	if !ok {
		return
	}

	file, err := h.fileService.RemoveFile(c.Request.Context(), fileID, requesterID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": file})
}
