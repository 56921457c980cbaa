package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmaldonado1992/MedVerify/internal/apperr"
	"github.com/dmaldonado1992/MedVerify/internal/user"
)

// RegisterRoutes mounts authentication endpoints under /auth. Login attempts
// are throttled per client IP.
func RegisterRoutes(router *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	limiter := newIPLimiter(service.cfg.LoginRate, service.cfg.LoginBurst)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", limiter.middleware(), handler.login)
	}
}

type httpHandler struct {
	service *Service
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

type loginResponse struct {
	User      user.User `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// login godoc
//
//	@Summary		Log in
//	@Description	Checks email and password and returns the user with an access token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		loginRequest	true	"credentials"
//	@Success		200		{object}	apperr.Envelope
//	@Failure		400		{object}	apperr.Envelope
//	@Failure		401		{object}	apperr.Envelope
//	@Failure		429		{object}	apperr.Envelope
//	@Router			/auth/login [post]
func (h *httpHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation("email and password are required"))
		return
	}

	result, err := h.service.Login(c.Request.Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			apperr.Respond(c, apperr.Unauthorized("invalid credentials"))
			return
		}
		apperr.Respond(c, apperr.Upstream("failed to authenticate", err))
		return
	}

	apperr.OK(c, http.StatusOK, "login successful", loginResponse{
		User:      result.User,
		Token:     result.AccessToken,
		ExpiresAt: result.ExpiresAt,
	})
}
