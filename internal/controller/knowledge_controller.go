package controller

import (
	"capital-research-be/internal/dto"
	"capital-research-be/internal/pkg/serverutils"
	"capital-research-be/pkg/knowledge"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
	Categories(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	store *knowledge.Store
}

func NewKnowledgeController(store *knowledge.Store) IKnowledgeController {
	return &knowledgeController{
		store: store,
	}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge/v1")
	h.Get("search", c.Search)
	h.Get("categories", c.Categories)

	// Mutations require auth but are not implemented: the catalog is rebuilt
	// from the in-code seed list at every start, so accepted writes would
	// silently vanish. 501 until a persistent index exists.
	admin := h.Group("", serverutils.JwtMiddleware)
	admin.Post("", c.Create)
	admin.Delete(":id", c.Delete)
}

func (c *knowledgeController) Search(ctx *fiber.Ctx) error {
	query := ctx.Query("q")
	category := knowledge.Category(ctx.Query("category"))
	if category != "" && !category.Valid() {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown category"})
	}
	limit := ctx.QueryInt("limit", knowledge.DefaultLimit)

	hits := c.store.Search(query, category, limit)
	return ctx.JSON(serverutils.SuccessResponse("Knowledge search", dto.KnowledgeSearchResponse{
		Query: query,
		Hits:  hits,
	}))
}

func (c *knowledgeController) Categories(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Knowledge categories", knowledge.Categories()))
}

func (c *knowledgeController) Create(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "knowledge catalog is read-only"})
}

func (c *knowledgeController) Delete(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "knowledge catalog is read-only"})
}
