package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/folio/portfolio-api/internal/api/metrics"
	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/core/ports"
)

type BlogHandler struct {
	service ports.BlogService
}

func NewBlogHandler(service ports.BlogService) *BlogHandler {
	return &BlogHandler{service: service}
}

type createBlogRequest struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags" validate:"max=20,dive,max=50"`
}

// List returns every post, newest first.
//
// @Summary      List blog posts
// @Tags         blogs
// @Produce      json
// @Success      200  {array}   domain.Blog
// @Failure      500  {object}  messageResponse
// @Router       /api/blogs [get]
func (h *BlogHandler) List(c echo.Context) error {
	blogs, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if blogs == nil {
		blogs = []*domain.Blog{}
	}
	return c.JSON(http.StatusOK, blogs)
}

// Get returns a single post, or null when it does not exist.
//
// @Summary      Get a blog post
// @Tags         blogs
// @Produce      json
// @Param        id   path      int  true  "Blog id"
// @Success      200  {object}  domain.Blog
// @Failure      400  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /api/blogs/{id} [get]
func (h *BlogHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	blog, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, blog)
}

// Create publishes a post. Admin only.
//
// @Summary      Create a blog post
// @Tags         blogs
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      createBlogRequest  true  "Post"
// @Success      201   {object}  domain.Blog
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      403   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /api/blogs [post]
func (h *BlogHandler) Create(c echo.Context) error {
	author, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req createBlogRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	blog, err := h.service.Create(c.Request().Context(), ports.CreateBlogInput{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		AuthorID: author.AccountID,
	})
	if err != nil {
		return err
	}

	metrics.BlogsCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, blog)
}
