package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/service/support"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type MessageHandler struct {
	service support.SupportUseCase
	log     logrus.FieldLogger
}

func NewMessageHandler(service support.SupportUseCase, log logrus.FieldLogger) *MessageHandler {
	return &MessageHandler{service: service, log: log}
}

func (h *MessageHandler) Register(router *gin.RouterGroup, admin gin.HandlerFunc) {
	router.POST("", h.submit)
	router.GET("", admin, h.list)
	router.DELETE("/:id", admin, h.delete)
}

func (h *MessageHandler) submit(c *gin.Context) {
	var req support.MessageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	msg, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) list(c *gin.Context) {
	msgs, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *MessageHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
