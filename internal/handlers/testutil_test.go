package handlers

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/catalog"
	"github.com/greencart/backend/internal/config"
	"github.com/greencart/backend/internal/middleware"
	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/services"
	"github.com/greencart/backend/internal/ws"
	"github.com/greencart/backend/pkg/logger"
	"github.com/greencart/backend/pkg/utils"
)

type testEnv struct {
	app             *fiber.App
	db              *gorm.DB
	chatHub         *ws.Hub
	notificationHub *ws.Hub
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		gosqlite.MustRegisterScalarFunction("NOW", 0, func(ctx *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return time.Now().UTC(), nil
		})
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Item{},
		&models.Product{},
		&models.Message{},
		&models.MessageRead{},
		&models.Notification{},
		&models.UserGroupRef{},
	)
	if err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	chatHub := ws.NewHub(ws.ChannelChat)
	notificationHub := ws.NewHub(ws.ChannelNotification)

	geoCfg := config.GeoConfig{NewGroupRadiusMeters: 200, LocationRadiusMeters: 100}
	sessionService := services.NewSessionService(db, catalog.NewGormResolver(db), 3)
	broadcaster := services.NewBroadcaster(db, chatHub)
	geoNotifier := services.NewGeoNotifier(db, notificationHub, geoCfg)
	readTracker := services.NewReadTracker(db)

	groupsHandler := NewGroupsHandler(db, sessionService, broadcaster, geoNotifier)
	itemsHandler := NewItemsHandler(db, sessionService, broadcaster)
	locationHandler := NewLocationHandler(db, geoNotifier, readTracker)
	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New()
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

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

	return &testEnv{app: app, db: db, chatHub: chatHub, notificationHub: notificationHub}
}

func createTestUser(t *testing.T, db *gorm.DB, name, email string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PostalCode:   "110001",
		Latitude:     28.6139,
		Longitude:    77.2090,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price float64) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:            name,
		Price:           price,
		CarbonFootprint: 2.1,
		EcoScore:        75,
		IsEcoFriendly:   true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("failed creating test product: %v", err)
	}
	return product
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

// recordingConn stands in for a websocket connection on hub-backed
// assertions against handler side effects.
type recordingConn struct {
	mu     sync.Mutex
	frames []ws.Frame
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, v.(ws.Frame))
	return nil
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) received() []ws.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ws.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}
