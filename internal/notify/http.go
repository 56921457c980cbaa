package notify

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dmaldonado1992/MedVerify/internal/apperr"
	"github.com/dmaldonado1992/MedVerify/internal/logger"
	"github.com/dmaldonado1992/MedVerify/internal/user"
)

// credentialRotator issues a fresh PIN for the account behind an email.
type credentialRotator interface {
	RotatePIN(ctx context.Context, email string) (user.Credential, error)
}

// RegisterRoutes mounts the email endpoints under /emails.
func RegisterRoutes(router *gin.RouterGroup, dispatcher *Dispatcher, users credentialRotator) {
	handler := &httpHandler{dispatcher: dispatcher, users: users}
	emails := router.Group("/emails")
	{
		emails.POST("/send", handler.send)
		emails.POST("/brevo-send", handler.brevoSend)
		emails.POST("/gmail-send", handler.gmailSend)
		emails.POST("/video-processed", handler.videoProcessed)
	}
}

type httpHandler struct {
	dispatcher *Dispatcher
	users      credentialRotator
}

type sendRequest struct {
	To       string `json:"to" binding:"required,email"`
	Subject  string `json:"subject" binding:"required"`
	HTML     string `json:"html" binding:"required"`
	Provider string `json:"provider"`
}

type videoNoticeRequest struct {
	UserEmail string `json:"userEmail" binding:"required,email"`
	VideoURL  string `json:"videoUrl" binding:"required,url"`
	UserName  string `json:"userName"`
}

func (h *httpHandler) send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation("to, subject and html required"))
		return
	}

	msg := Message{To: req.To, Subject: req.Subject, HTML: req.HTML}
	var (
		res Result
		err error
	)
	if req.Provider != "" {
		res, err = h.dispatcher.SendVia(c.Request.Context(), req.Provider, msg)
	} else {
		res, err = h.dispatcher.Send(c.Request.Context(), msg)
	}
	h.reply(c, res, err)
}

// brevoSend godoc
//
//	@Summary		Send email via Brevo
//	@Tags			Emails
//	@Accept			json
//	@Produce		json
//	@Param			body	body		sendRequest	true	"message"
//	@Success		200		{object}	apperr.Envelope
//	@Failure		400		{object}	apperr.Envelope
//	@Failure		500		{object}	apperr.Envelope
//	@Router			/emails/brevo-send [post]
func (h *httpHandler) brevoSend(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation("to, subject and html required"))
		return
	}

	res, err := h.dispatcher.SendVia(c.Request.Context(), "brevo", Message{To: req.To, Subject: req.Subject, HTML: req.HTML})
	h.reply(c, res, err)
}

func (h *httpHandler) gmailSend(c *gin.Context) {
	var req videoNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation("userEmail and videoUrl required"))
		return
	}

	msg, err := h.dispatcher.VideoReadyMessage(Notice{To: req.UserEmail, Name: req.UserName, VideoURL: req.VideoURL})
	if err != nil {
		apperr.Respond(c, apperr.Upstream("failed to render email", err))
		return
	}
	res, err := h.dispatcher.SendVia(c.Request.Context(), "gmail", msg)
	h.reply(c, res, err)
}

// videoProcessed godoc
//
//	@Summary		Notify that a study is ready
//	@Description	Issues a new access PIN for the recipient's account and emails it with the study link. The previous PIN stays valid until the new one is first used.
//	@Tags			Emails
//	@Accept			json
//	@Produce		json
//	@Param			body	body		videoNoticeRequest	true	"notice"
//	@Success		200		{object}	apperr.Envelope
//	@Failure		400		{object}	apperr.Envelope
//	@Failure		500		{object}	apperr.Envelope
//	@Router			/emails/video-processed [post]
func (h *httpHandler) videoProcessed(c *gin.Context) {
	var req videoNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation("userEmail and videoUrl required"))
		return
	}

	notice := Notice{To: req.UserEmail, Name: req.UserName, Title: req.UserName, VideoURL: req.VideoURL}
	if h.users != nil {
		cred, err := h.users.RotatePIN(c.Request.Context(), req.UserEmail)
		switch {
		case err == nil:
			notice.Password = cred.Password
		case errors.Is(err, user.ErrUserNotFound):
		default:
			logger.FromContext(c).Warn("rotate pin failed, sending without credential", zap.Error(err))
		}
	}

	res, err := h.dispatcher.StudyReady(c.Request.Context(), notice)
	h.reply(c, res, err)
}

func (h *httpHandler) reply(c *gin.Context, res Result, err error) {
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidMessage):
			apperr.Respond(c, apperr.Validation(err.Error()))
		case errors.Is(err, ErrUnknownProvider):
			apperr.Respond(c, apperr.Validation(err.Error()))
		default:
			apperr.Respond(c, apperr.Upstream("failed to send email", err))
		}
		return
	}
	apperr.OK(c, http.StatusOK, "email sent", res)
}
