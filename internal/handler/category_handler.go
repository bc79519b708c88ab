package handler

import (
	"net/http"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	repo repository.CategoryRepositoryInterface
	log  *zap.Logger
}

func NewCategoryHandler(repo repository.CategoryRepositoryInterface, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{repo: repo, log: log}
}

type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Color string `json:"color" binding:"omitempty,hexcolor,len=7"`
	Icon  string `json:"icon" binding:"omitempty,max=50"`
}

type UpdateCategoryRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Color *string `json:"color" binding:"omitempty,hexcolor,len=7"`
	Icon  *string `json:"icon" binding:"omitempty,max=50"`
}

// List godoc
// @Summary      List the requester's categories
// @Tags         Categories
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} model.Category
// @Router       /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	categories, err := h.repo.List(c.Request.Context(), p)
	if err != nil {
		fail(c, h.log, err, "Category")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

// Create godoc
// @Summary      Create a category
// @Tags         Categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateCategoryRequest true "Category"
// @Success      201 {object} model.Category
// @Failure      400 {object} ErrorResponse
// @Router       /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	category := &model.Category{
		UserID: p.UserID,
		Name:   req.Name,
		Color:  req.Color,
		Icon:   req.Icon,
	}
	if err := h.repo.Create(c.Request.Context(), p, category); err != nil {
		fail(c, h.log, err, "Category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "category")
	if !ok {
		return
	}

	category, err := h.repo.Get(c.Request.Context(), p, id)
	if err != nil {
		fail(c, h.log, err, "Category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "category")
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	category, err := h.repo.Update(c.Request.Context(), p, id, repository.CategoryChanges{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		fail(c, h.log, err, "Category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// Delete removes the category; its tasks become uncategorized.
func (h *CategoryHandler) Delete(c *gin.Context) {
	p, ok := requester(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "category")
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), p, id); err != nil {
		fail(c, h.log, err, "Category")
		return
	}
	c.Status(http.StatusNoContent)
}
