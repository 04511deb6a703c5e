package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	service users.UserUseCase
	log     logrus.FieldLogger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(service users.UserUseCase, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{service: service, log: log}
}

func (h *AuthHandler) Register(router *gin.RouterGroup, limit gin.HandlerFunc) {
	router.POST("/register", limit, h.register)
	router.POST("/login", limit, h.login)
	router.GET("/verify", h.verify)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := h.service.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"email":   user.Email,
		"role":    user.Role,
		"message": "Registration successful. Please check your email to verify your account.",
	})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	session, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) verify(c *gin.Context) {
	user, err := h.service.Verify(c.Request.Context(), c.Query("token"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": user.Email, "message": "Email verified. You can now log in."})
}
