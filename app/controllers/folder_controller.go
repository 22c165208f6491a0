package controllers

import (
	"github.com/betterdrive/betterdrive/app/services"
	"github.com/betterdrive/betterdrive/pkg/auth"
	"github.com/betterdrive/betterdrive/pkg/ctx"
)

type FolderController struct {
	service *services.FolderService
}

func NewFolderController(service *services.FolderService) *FolderController {
	return &FolderController{service: service}
}

type createFolderInput struct {
	Name     string `json:"name"      validate:"required,min=1,max=255"`
	ParentID *uint  `json:"parent_id" validate:"nullable"`
}

func (fc *FolderController) Create(c *ctx.Context) {
	var in createFolderInput
	if !c.BindJSON(&in) {
		return
	}

	folder, err := fc.service.Create(c.Context(), auth.UserIDFromCtx(c.Context()), in.Name, in.ParentID)
	if err != nil {
		fail(c, err)
		return
	}

	c.Created(folder)
}

func (fc *FolderController) Index(c *ctx.Context) {
	folders, err := fc.service.All(c.Context(), auth.UserIDFromCtx(c.Context()))
	if err != nil {
		fail(c, err)
		return
	}

	c.Success(folders)
}

func (fc *FolderController) Home(c *ctx.Context) {
	folder, err := fc.service.Home(c.Context(), auth.UserIDFromCtx(c.Context()))
	if err != nil {
		fail(c, err)
		return
	}

	c.Success(folder)
}

func (fc *FolderController) Contents(c *ctx.Context) {
	id := paramID(c)
	if id == 0 {
		return
	}

	contents, err := fc.service.Contents(c.Context(), auth.UserIDFromCtx(c.Context()), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.Success(contents)
}

// Stats serves the pre-delete confirmation preview.
func (fc *FolderController) Stats(c *ctx.Context) {
	id := paramID(c)
	if id == 0 {
		return
	}

	stats, err := fc.service.Stats(c.Context(), auth.UserIDFromCtx(c.Context()), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.Success(stats)
}

type renameInput struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

func (fc *FolderController) Rename(c *ctx.Context) {
	id := paramID(c)
	if id == 0 {
		return
	}

	var in renameInput
	if !c.BindJSON(&in) {
		return
	}

	folder, err := fc.service.Rename(c.Context(), auth.UserIDFromCtx(c.Context()), id, in.Name)
	if err != nil {
		fail(c, err)
		return
	}

	c.Success(folder)
}

func (fc *FolderController) ToggleStar(c *ctx.Context) {
	id := paramID(c)
	if id == 0 {
		return
	}

	folder, err := fc.service.ToggleStar(c.Context(), auth.UserIDFromCtx(c.Context()), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.Success(folder)
}

func (fc *FolderController) Delete(c *ctx.Context) {
	id := paramID(c)
	if id == 0 {
		return
	}

	result, err := fc.service.Delete(c.Context(), auth.UserIDFromCtx(c.Context()), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.Success(result)
}
