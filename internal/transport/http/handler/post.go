package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gopherblog/internal/app"
	"gopherblog/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *app.PostService
}

type PostForm struct {
	Title   string `form:"title" binding:"required,max=160"`
	Content string `form:"content" binding:"required"`
}

func NewPostHandler(postService *app.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) Index(c *gin.Context) {
	query := c.Query("q")
	posts, err := h.postService.ListAll(query)
	if err != nil {
		RenderError(c, http.StatusInternalServerError)
		return
	}
	render(c, http.StatusOK, "index.html", gin.H{
		"Posts": posts,
		"Query": query,
	})
}

func (h *PostHandler) View(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		RenderError(c, http.StatusNotFound)
		return
	}

	post, err := h.postService.GetByID(id)
	if err != nil {
		if errors.Is(err, app.ErrPostNotFound) {
			RenderError(c, http.StatusNotFound)
			return
		}
		RenderError(c, http.StatusInternalServerError)
		return
	}
	render(c, http.StatusOK, "view_post.html", gin.H{"Post": post})
}

func (h *PostHandler) Dashboard(c *gin.Context) {
	user := middleware.UserFrom(c)
	posts, err := h.postService.ListByOwner(user.ID)
	if err != nil {
		RenderError(c, http.StatusInternalServerError)
		return
	}
	render(c, http.StatusOK, "dashboard.html", gin.H{"Posts": posts})
}

func (h *PostHandler) AddForm(c *gin.Context) {
	render(c, http.StatusOK, "add_post.html", gin.H{"Form": PostForm{}})
}

func (h *PostHandler) Add(c *gin.Context) {
	user := middleware.UserFrom(c)

	var form PostForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, "add_post.html", gin.H{
			"Form":  form,
			"Error": formErrorMessage(err),
		})
		return
	}

	if _, err := h.postService.Create(user.ID, form.Title, form.Content); err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			render(c, http.StatusBadRequest, "add_post.html", gin.H{
				"Form":  form,
				"Error": "Title and content are required.",
			})
			return
		}
		RenderError(c, http.StatusInternalServerError)
		return
	}

	setFlash(c, "success", "Post created.")
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *PostHandler) EditForm(c *gin.Context) {
	user := middleware.UserFrom(c)

	id, ok := postID(c)
	if !ok {
		RenderError(c, http.StatusNotFound)
		return
	}

	post, err := h.postService.GetByID(id)
	if err != nil {
		if errors.Is(err, app.ErrPostNotFound) {
			RenderError(c, http.StatusNotFound)
			return
		}
		RenderError(c, http.StatusInternalServerError)
		return
	}
	if !app.CanModify(user, post) {
		RenderError(c, http.StatusForbidden)
		return
	}

	render(c, http.StatusOK, "edit_post.html", gin.H{
		"Post": post,
		"Form": PostForm{Title: post.Title, Content: post.Content},
	})
}

func (h *PostHandler) Edit(c *gin.Context) {
	user := middleware.UserFrom(c)

	id, ok := postID(c)
	if !ok {
		RenderError(c, http.StatusNotFound)
		return
	}

	var form PostForm
	if err := c.ShouldBind(&form); err != nil {
		h.rerenderEdit(c, id, form, formErrorMessage(err))
		return
	}

	if _, err := h.postService.Update(user, id, form.Title, form.Content); err != nil {
		switch {
		case errors.Is(err, app.ErrPostNotFound):
			RenderError(c, http.StatusNotFound)
		case errors.Is(err, app.ErrForbidden):
			RenderError(c, http.StatusForbidden)
		case errors.Is(err, app.ErrInvalidInput):
			h.rerenderEdit(c, id, form, "Title and content are required.")
		default:
			RenderError(c, http.StatusInternalServerError)
		}
		return
	}

	setFlash(c, "success", "Post updated.")
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *PostHandler) Delete(c *gin.Context) {
	user := middleware.UserFrom(c)

	id, ok := postID(c)
	if !ok {
		RenderError(c, http.StatusNotFound)
		return
	}

	if err := h.postService.Delete(user, id); err != nil {
		switch {
		case errors.Is(err, app.ErrPostNotFound):
			RenderError(c, http.StatusNotFound)
		case errors.Is(err, app.ErrForbidden):
			RenderError(c, http.StatusForbidden)
		default:
			RenderError(c, http.StatusInternalServerError)
		}
		return
	}

	setFlash(c, "success", "Post deleted.")
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// rerenderEdit redraws the edit form with the submitted values preserved.
// The post itself must still exist and belong to the actor, otherwise the
// dedicated error page takes precedence over the form error.
func (h *PostHandler) rerenderEdit(c *gin.Context, id uint, form PostForm, message string) {
	user := middleware.UserFrom(c)

	post, err := h.postService.GetByID(id)
	if err != nil {
		if errors.Is(err, app.ErrPostNotFound) {
			RenderError(c, http.StatusNotFound)
			return
		}
		RenderError(c, http.StatusInternalServerError)
		return
	}
	if !app.CanModify(user, post) {
		RenderError(c, http.StatusForbidden)
		return
	}

	render(c, http.StatusBadRequest, "edit_post.html", gin.H{
		"Post":  post,
		"Form":  form,
		"Error": message,
	})
}

func postID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
