package controllers

import (
	"github.com/betterdrive/betterdrive/app/services"
	"github.com/betterdrive/betterdrive/pkg/auth"
	"github.com/betterdrive/betterdrive/pkg/ctx"
)

type UserController struct {
	service *services.UserService
}

func NewUserController(service *services.UserService) *UserController {
	return &UserController{service: service}
}

func (uc *UserController) StorageInfo(c *ctx.Context) {
	info, err := uc.service.StorageInfo(c.Context(), auth.UserIDFromCtx(c.Context()))
	if err != nil {
		fail(c, err)
		return
	}

	c.Success(info)
}

func (uc *UserController) Starred(c *ctx.Context) {
	items, err := uc.service.Starred(c.Context(), auth.UserIDFromCtx(c.Context()))
	if err != nil {
		fail(c, err)
		return
	}

	c.Success(items)
}
