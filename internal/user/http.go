package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dmaldonado1992/MedVerify/internal/apperr"
)

// RegisterRoutes mounts user management endpoints under /users.
func RegisterRoutes(router *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	users := router.Group("/users")
	{
		users.POST("", handler.create)
		users.GET("", handler.list)
		users.GET("/email/:email", handler.getByEmail)
		users.GET("/:userId", handler.get)
		users.PUT("/:userId", handler.update)
		users.DELETE("/:userId", handler.delete)
	}
}

type httpHandler struct {
	service *Service
}

type createRequest struct {
	UserID    string  `json:"user_id" binding:"required,max=128"`
	Email     string  `json:"email" binding:"required,email"`
	FirstName *string `json:"first_name" binding:"omitempty,max=128"`
	LastName  *string `json:"last_name" binding:"omitempty,max=128"`
}

type updateRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"first_name" binding:"omitempty,max=128"`
	LastName  *string `json:"last_name" binding:"omitempty,max=128"`
}

type createdUser struct {
	User
	Password string `json:"password"`
}

// create godoc
//
//	@Summary		Create user
//	@Description	Registers a user and returns a generated 6-digit password once.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			body	body		createRequest	true	"user"
//	@Success		201		{object}	apperr.Envelope
//	@Failure		400		{object}	apperr.Envelope
//	@Failure		409		{object}	apperr.Envelope
//	@Router			/users [post]
func (h *httpHandler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	cred, err := h.service.Create(c.Request.Context(), CreateInput{
		UserID:    req.UserID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		apperr.Respond(c, toAppError(err))
		return
	}

	apperr.OK(c, http.StatusCreated, "user created", createdUser{User: cred.User, Password: cred.Password})
}

func (h *httpHandler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		apperr.Respond(c, toAppError(err))
		return
	}

	apperr.OKPage(c, page.Users, apperr.Pagination{
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: page.HasMore(),
	})
}

func (h *httpHandler) get(c *gin.Context) {
	u, err := h.service.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		apperr.Respond(c, toAppError(err))
		return
	}
	apperr.OK(c, http.StatusOK, "", u)
}

func (h *httpHandler) getByEmail(c *gin.Context) {
	u, err := h.service.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		apperr.Respond(c, toAppError(err))
		return
	}
	apperr.OK(c, http.StatusOK, "", u)
}

// update godoc
//
//	@Summary	Update user
//	@Tags		Users
//	@Accept		json
//	@Produce	json
//	@Param		userId	path		string			true	"external user id"
//	@Param		body	body		updateRequest	true	"fields to change"
//	@Success	200		{object}	apperr.Envelope
//	@Failure	400		{object}	apperr.Envelope
//	@Failure	404		{object}	apperr.Envelope
//	@Failure	409		{object}	apperr.Envelope
//	@Router		/users/{userId} [put]
func (h *httpHandler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	u, err := h.service.Update(c.Request.Context(), c.Param("userId"), Patch{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		apperr.Respond(c, toAppError(err))
		return
	}
	apperr.OK(c, http.StatusOK, "user updated", u)
}

func (h *httpHandler) delete(c *gin.Context) {
	u, err := h.service.Delete(c.Request.Context(), c.Param("userId"))
	if err != nil {
		apperr.Respond(c, toAppError(err))
		return
	}
	apperr.OK(c, http.StatusOK, "user deleted", u)
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, ErrEmailTaken):
		return apperr.Conflict("email already registered")
	case errors.Is(err, ErrUserIDTaken):
		return apperr.Conflict("user_id already registered")
	case errors.Is(err, ErrInvalidUserID):
		return apperr.Validation("invalid user_id")
	case errors.Is(err, ErrInvalidEmail):
		return apperr.Validation("invalid email")
	case errors.Is(err, ErrNoFields):
		return apperr.Validation("no fields to update")
	default:
		return apperr.Upstream("user operation failed", err)
	}
}
