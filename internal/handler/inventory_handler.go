package handler

import (
	"errors"
	"strconv"

	"gochicken/internal/model"
	"gochicken/internal/service"
	"gochicken/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// OperatorHeader carries a free-form name for the audit columns.
const OperatorHeader = "X-Operator"

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

func getOperator(c *fiber.Ctx) string {
	if op := c.Get(OperatorHeader); op != "" {
		return op
	}
	return "system"
}

func parseDays(c *fiber.Ctx) int {
	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days <= 0 {
		return 7
	}
	return days
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, validator.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrBranchNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrStockNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrDuplicateSKU),
		errors.Is(err, service.ErrDuplicateBranch),
		errors.Is(err, service.ErrDuplicateStock):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

func (h *InventoryHandler) CreateBranch(c *fiber.Ctx) error {
	var branch model.Branch
	if err := c.BodyParser(&branch); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := h.service.CreateBranch(&branch, getOperator(c)); err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Branch created", "data": branch})
}

func (h *InventoryHandler) GetBranches(c *fiber.Ctx) error {
	branches, err := h.service.GetAllBranches()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(branches)
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := h.service.CreateProduct(&product, getOperator(c)); err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(products)
}

// GetBranchStocks is the authoritative stock list of a branch.
// GET /api/v1/branches/:id/stocks
func (h *InventoryHandler) GetBranchStocks(c *fiber.Ctx) error {
	branchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid branch ID"})
	}
	rows, err := h.service.GetBranchStocks(branchID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rows)
}

// AssignStock adds a product to a branch stock list.
// POST /api/v1/branches/:id/stocks
func (h *InventoryHandler) AssignStock(c *fiber.Ctx) error {
	branchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid branch ID"})
	}
	var req model.AssignStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	row, err := h.service.AssignStock(branchID, &req, getOperator(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Stock assigned", "data": row})
}

// UpdateStock sets the absolute quantity of one stock row.
// PUT /api/v1/stocks/:id
func (h *InventoryHandler) UpdateStock(c *fiber.Ctx) error {
	stockID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid stock ID"})
	}
	var req model.UpdateStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	row, err := h.service.UpdateStock(stockID, &req, getOperator(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock updated", "data": row})
}

// GET /api/v1/branches/:id/movements?days=7
func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	branchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid branch ID"})
	}
	movements, err := h.service.GetMovements(branchID, parseDays(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(movements)
}
