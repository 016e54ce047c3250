package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"max=100"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *APIHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.userService.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *APIHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.userService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *APIHandler) SignOut(c *gin.Context) {
	if err := h.userService.SignOut(c.Request.Context(), session(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) Me(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
