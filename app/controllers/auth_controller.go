package controllers

import (
	"github.com/betterdrive/betterdrive/app/services"
	"github.com/betterdrive/betterdrive/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

type registerInput struct {
	Name     string `json:"name"     validate:"required,min=2,max=255"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (ac *AuthController) Register(c *ctx.Context) {
	var in registerInput
	if !c.BindJSON(&in) {
		return
	}

	user, token, err := ac.service.Register(c.Context(), in.Name, in.Email, in.Password)
	if err != nil {
		fail(c, err)
		return
	}

	c.Created(map[string]interface{}{"user": user, "token": token})
}

type loginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (ac *AuthController) Login(c *ctx.Context) {
	var in loginInput
	if !c.BindJSON(&in) {
		return
	}

	user, token, err := ac.service.Login(c.Context(), in.Email, in.Password)
	if err != nil {
		// Missing account and bad password both read as invalid credentials.
		c.Unauthorized("Invalid credentials")
		return
	}

	c.Success(map[string]interface{}{"user": user, "token": token})
}
