package app

import (
	"gochicken/internal/handler"
	"gochicken/internal/middleware"
	"gochicken/internal/model"
	"gochicken/internal/repository"
	"gochicken/internal/service"
	"gochicken/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Deps struct {
	DB                *gorm.DB
	Hub               *ws.Hub
	Log               zerolog.Logger
	AppName           string
	LowStockThreshold int
}

// Migrate creates or updates the stock schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Branch{}, &model.Product{}, &model.BranchStock{}, &model.StockMovement{})
}

// New wires repositories, services and handlers into a fiber app.
func New(d Deps) *fiber.App {
	branchRepo := repository.NewBranchRepo(d.DB)
	productRepo := repository.NewProductRepo(d.DB)
	stockRepo := repository.NewStockRepo(d.DB)
	movementRepo := repository.NewMovementRepo(d.DB)

	invService := service.NewInventoryService(branchRepo, productRepo, stockRepo, movementRepo, d.DB, d.Hub, d.Log)
	dashService := service.NewDashboardService(branchRepo, movementRepo, d.LowStockThreshold)

	invHandler := handler.NewInventoryHandler(invService)
	dashHandler := handler.NewDashboardHandler(dashService)

	app := fiber.New(fiber.Config{
		AppName: d.AppName,
	})

	app.Use(middleware.RequestLogger(d.Log))
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": d.AppName, "ws_clients": d.Hub.ClientCount()})
	})

	handler.RegisterRoutes(app.Group("/api/v1"), invHandler, dashHandler)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !d.Hub.Join(c) {
			return
		}
		defer d.Hub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	return app
}
