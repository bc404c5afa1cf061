package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greencart/backend/internal/catalog"
	"github.com/greencart/backend/internal/config"
	"github.com/greencart/backend/internal/database"
	"github.com/greencart/backend/internal/handlers"
	"github.com/greencart/backend/internal/middleware"
	"github.com/greencart/backend/internal/services"
	"github.com/greencart/backend/internal/ws"
	"github.com/greencart/backend/pkg/logger"
	"github.com/greencart/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	chatHub := ws.NewHub(ws.ChannelChat)
	notificationHub := ws.NewHub(ws.ChannelNotification)

	resolver := catalog.NewGormResolver(db)
	sessionService := services.NewSessionService(db, resolver, cfg.Order.MemberRetryAttempts)
	broadcaster := services.NewBroadcaster(db, chatHub)
	geoNotifier := services.NewGeoNotifier(db, notificationHub, cfg.Geo)
	readTracker := services.NewReadTracker(db)

	groupsHandler := handlers.NewGroupsHandler(db, sessionService, broadcaster, geoNotifier)
	itemsHandler := handlers.NewItemsHandler(db, sessionService, broadcaster)
	locationHandler := handlers.NewLocationHandler(db, geoNotifier, readTracker)
	chatSocket := handlers.NewChatSocketHandler(db, chatHub, sessionService, broadcaster)
	notificationSocket := handlers.NewNotificationSocketHandler(db, notificationHub, sessionService, readTracker)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	groupRoutes := api.Group("/groups", authMiddleware.RequireAuth)
	groupRoutes.Post("/", groupsHandler.Create)
	groupRoutes.Get("/pending", groupsHandler.ListPending)
	groupRoutes.Get("/ordered", groupsHandler.ListOrdered)
	groupRoutes.Get("/ordered/:groupId", groupsHandler.GetOrdered)
	groupRoutes.Post("/:groupId/join", groupsHandler.Join)
	groupRoutes.Post("/:groupId/exit", groupsHandler.Exit)
	groupRoutes.Put("/:groupId", groupsHandler.Update)
	groupRoutes.Post("/:groupId/items", itemsHandler.Add)
	groupRoutes.Post("/:groupId/order", groupsHandler.PlaceOrder)

	itemRoutes := api.Group("/items", authMiddleware.RequireAuth)
	itemRoutes.Put("/:itemId", itemsHandler.Update)
	itemRoutes.Delete("/:itemId", itemsHandler.Remove)

	api.Put("/location", authMiddleware.RequireAuth, locationHandler.Update)

	app.Get("/ws/chat", authMiddleware.RequireWebSocketAuth, chatSocket.Handler())
	app.Get("/ws/notification", authMiddleware.RequireWebSocketAuth, notificationSocket.Handler())

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
