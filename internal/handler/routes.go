package handler

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the stock API under api (usually /api/v1).
func RegisterRoutes(api fiber.Router, inv *InventoryHandler, dash *DashboardHandler) {
	api.Get("/branches", inv.GetBranches)
	api.Post("/branches", inv.CreateBranch)
	api.Get("/branches/:id/stocks", inv.GetBranchStocks)
	api.Post("/branches/:id/stocks", inv.AssignStock)
	api.Get("/branches/:id/movements", inv.GetMovements)
	api.Get("/branches/:id/report", dash.GetBranchReport)
	api.Get("/branches/:id/report/movement", dash.GetStockMovement)

	api.Get("/products", inv.GetProducts)
	api.Post("/products", inv.CreateProduct)

	api.Put("/stocks/:id", inv.UpdateStock)
}
