package controllers

import (
	"net/http"
	"strconv"

	"github.com/betterdrive/betterdrive/app/services"
	"github.com/betterdrive/betterdrive/config"
	"github.com/betterdrive/betterdrive/pkg/auth"
	"github.com/betterdrive/betterdrive/pkg/ctx"
)

type FileController struct {
	service *services.FileService
}

func NewFileController(service *services.FileService) *FileController {
	return &FileController{service: service}
}

type createFileInput struct {
	Name       string `json:"name"        validate:"required,min=1,max=255"`
	Size       int64  `json:"size"        validate:"gte=0"`
	MimeType   string `json:"mime_type"   validate:"required,max=255"`
	URL        string `json:"url"         validate:"required,url"`
	StorageKey string `json:"storage_key" validate:"required,max=255"`
	FolderID   uint   `json:"folder_id"   validate:"required"`
}

// Create registers an already-uploaded blob as a file row (the post-upload
// callback shape used when the client uploads straight to the bucket).
func (fc *FileController) Create(c *ctx.Context) {
	var in createFileInput
	if !c.BindJSON(&in) {
		return
	}

	file, err := fc.service.Create(c.Context(), auth.UserIDFromCtx(c.Context()), services.CreateFileInput{
		Name:       in.Name,
		Size:       in.Size,
		MimeType:   in.MimeType,
		URL:        in.URL,
		StorageKey: in.StorageKey,
		FolderID:   in.FolderID,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.Created(file)
}

// Upload accepts a multipart form ("file" part plus folder_id field) and
// streams the content through the blob store.
func (fc *FileController) Upload(c *ctx.Context) {
	if err := c.R.ParseMultipartForm(config.MaxFileSize()); err != nil {
		c.Error(http.StatusBadRequest, "Invalid multipart form")
		return
	}

	folderID, err := strconv.ParseUint(c.PostForm("folder_id"), 10, 32)
	if err != nil || folderID == 0 {
		c.Error(http.StatusBadRequest, "folder_id is required")
		return
	}

	part, header, err := c.R.FormFile("file")
	if err != nil {
		c.Error(http.StatusBadRequest, "file part is required")
		return
	}
	defer part.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	file, err := fc.service.Upload(c.Context(), auth.UserIDFromCtx(c.Context()),
		uint(folderID), header.Filename, contentType, header.Size, part)
	if err != nil {
		fail(c, err)
		return
	}

	c.Created(file)
}

func (fc *FileController) Rename(c *ctx.Context) {
	id := paramID(c)
	if id == 0 {
		return
	}

	var in renameInput
	if !c.BindJSON(&in) {
		return
	}

	file, err := fc.service.Rename(c.Context(), auth.UserIDFromCtx(c.Context()), id, in.Name)
	if err != nil {
		fail(c, err)
		return
	}

	c.Success(file)
}

func (fc *FileController) ToggleStar(c *ctx.Context) {
	id := paramID(c)
	if id == 0 {
		return
	}

	file, err := fc.service.ToggleStar(c.Context(), auth.UserIDFromCtx(c.Context()), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.Success(file)
}

func (fc *FileController) Delete(c *ctx.Context) {
	id := paramID(c)
	if id == 0 {
		return
	}

	result, err := fc.service.Delete(c.Context(), auth.UserIDFromCtx(c.Context()), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.Success(map[string]interface{}{"deletedFile": result})
}
