package controller

import (
	"errors"

	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/pkg/serverutils"
	"ai-tutoring-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IRetrievalController interface {
	RegisterRoutes(r fiber.Router)
	RetrieveContext(ctx *fiber.Ctx) error
	Ingest(ctx *fiber.Ctx) error
	InvalidateBook(ctx *fiber.Ctx) error
}

type retrievalController struct {
	retrievalService service.IRetrievalService
}

func NewRetrievalController(retrievalService service.IRetrievalService) IRetrievalController {
	return &retrievalController{
		retrievalService: retrievalService,
	}
}

func (c *retrievalController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/retrieval/v1")
	h.Post("context", c.RetrieveContext)
	h.Post("ingest", c.Ingest)
	h.Delete("book/:id", c.InvalidateBook)
}

func (c *retrievalController) RetrieveContext(ctx *fiber.Ctx) error {
	var req dto.RetrieveContextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := c.retrievalService.RetrieveContext(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success retrieve context", res))
}

func (c *retrievalController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.retrievalService.Ingest(ctx.Context(), &req); err != nil {
		if errors.Is(err, service.ErrEmptyDocument) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued for ingestion", nil))
}

func (c *retrievalController) InvalidateBook(ctx *fiber.Ctx) error {
	bookId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid book id")
	}

	if err := c.retrievalService.InvalidateBook(ctx.Context(), bookId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success invalidate book", nil))
}
