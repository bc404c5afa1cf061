package services

import (
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greencart/backend/internal/database"
	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/ws"
	"github.com/greencart/backend/pkg/logger"
)

var testSetupOnce sync.Once

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testSetupOnce.Do(func() {
		gosqlite.MustRegisterScalarFunction("NOW", 0, func(ctx *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return time.Now().UTC(), nil
		})
		logger.Init()
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

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating models: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *gorm.DB, name, email, postalCode string, lat, lng float64) *models.User {
	t.Helper()

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "hash",
		PostalCode:   postalCode,
		Latitude:     lat,
		Longitude:    lng,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating user %s: %v", email, err)
	}
	return user
}

func createProduct(t *testing.T, db *gorm.DB, name string, price float64) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:            name,
		Price:           price,
		CarbonFootprint: 1.5,
		EcoScore:        80,
		IsEcoFriendly:   true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("failed creating product %s: %v", name, err)
	}
	return product
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("failed counting rows: %v", err)
	}
	return count
}

func refState(t *testing.T, db *gorm.DB, userID, groupID uuid.UUID) (models.GroupRefState, bool) {
	t.Helper()

	var ref models.UserGroupRef
	err := db.First(&ref, "user_id = ? AND group_id = ?", userID, groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false
	}
	if err != nil {
		t.Fatalf("failed loading group ref: %v", err)
	}
	return ref.State, true
}

// fakeConn records every frame written to it, standing in for a live
// websocket connection in hub-backed tests.
type fakeConn struct {
	mu     sync.Mutex
	frames []ws.Frame
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, v.(ws.Frame))
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) received() []ws.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ws.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *fakeConn) lastFrame(t *testing.T) ws.Frame {
	t.Helper()
	frames := c.received()
	if len(frames) == 0 {
		t.Fatal("expected at least one frame, got none")
	}
	return frames[len(frames)-1]
}
