package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/folio/portfolio-api/internal/api/metrics"
	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

type CommentHandler struct {
	service ports.CommentService
}

func NewCommentHandler(service ports.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

type createCommentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// List returns the comments of a post, oldest first.
//
// @Summary      List comments of a post
// @Tags         comments
// @Produce      json
// @Param        id   path      int  true  "Blog id"
// @Success      200  {array}   domain.Comment
// @Failure      400  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /api/blogs/{id}/comments [get]
func (h *CommentHandler) List(c echo.Context) error {
	blogID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	comments, err := h.service.List(c.Request().Context(), blogID)
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}
	return c.JSON(http.StatusOK, comments)
}

// Create adds a comment to a post as the current user.
//
// @Summary      Comment on a post
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      int                   true  "Blog id"
// @Param        body  body      createCommentRequest  true  "Comment"
// @Success      201   {object}  domain.Comment
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /api/blogs/{id}/comments [post]
func (h *CommentHandler) Create(c echo.Context) error {
	author, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	blogID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req createCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.service.Create(c.Request().Context(), blogID, author, req.Content)
	if err != nil {
		return err
	}

	metrics.CommentsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, comment)
}

// Delete removes a comment. Only its author or an admin may do so.
//
// @Summary      Delete a comment
// @Tags         comments
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      int  true  "Comment id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  messageResponse
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /api/comments/{id} [delete]
func (h *CommentHandler) Delete(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	commentID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), commentID, actor); err != nil {
		return err
	}

	metrics.CommentsTotal.WithLabelValues("deleted").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Comment deleted"})
}
