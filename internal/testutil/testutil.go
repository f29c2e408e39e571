package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/fabrimetal/oficina/internal/handler"
	"github.com/fabrimetal/oficina/internal/middleware"
	"github.com/fabrimetal/oficina/internal/model/entity"
	"github.com/fabrimetal/oficina/internal/repository"
	"github.com/fabrimetal/oficina/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_oficina"
	JWTSecret  = "oficina-jwt-secret-key-2025"
)

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "postgres")
	dbname := getEnv("DB_NAME", "oficina_test")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so ALL pooled connections use test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Migrate test tables
	err = db.AutoMigrate(
		&entity.Organization{},
		&entity.UserOrganization{},
		&entity.Project{},
		&entity.WorkOrder{},
		&entity.WorkOrderCounter{},
		&entity.Task{},
		&entity.Operation{},
		&entity.TimeLog{},
		&entity.QualityCheck{},
		&entity.QualityImage{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	// Cleanup on test completion
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// Reconnect to drop the schema
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupServices wires repositories and services against the test database.
// Redis is nil; the services degrade to uncached lookups.
func SetupServices(db *gorm.DB) *service.Services {
	repos := repository.NewRepositories(db)
	return service.NewServices(repos, db, nil)
}

// SetupAPI builds a gin router with the full middleware chain (JWT auth plus
// organization resolution) and all API routes registered, mirroring the
// production route table.
func SetupAPI(db *gorm.DB) (*gin.Engine, *service.Services) {
	gin.SetMode(gin.TestMode)
	svc := SetupServices(db)
	h := handler.NewHandlers(svc)

	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.Use(middleware.JWTAuth(JWTSecret))
	api.Use(middleware.ResolveOrganization(svc.Organization))
	{
		api.GET("/organization", h.Organization.Get)
		api.PUT("/organization", h.Organization.Update)

		projects := api.Group("/projects")
		{
			projects.GET("", h.Project.List)
			projects.POST("", h.Project.Create)
			projects.GET("/:id", h.Project.Get)
			projects.PUT("/:id", h.Project.Update)
			projects.DELETE("/:id", h.Project.Delete)
		}

		workOrders := api.Group("/work-orders")
		{
			workOrders.GET("", h.WorkOrder.List)
			workOrders.POST("", h.WorkOrder.Create)
			workOrders.GET("/:id", h.WorkOrder.Get)
			workOrders.PUT("/:id", h.WorkOrder.Update)
			workOrders.DELETE("/:id", h.WorkOrder.Delete)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", h.Task.List)
			tasks.POST("", h.Task.Create)
			tasks.GET("/:id", h.Task.Get)
			tasks.PUT("/:id", h.Task.Update)
			tasks.DELETE("/:id", h.Task.Delete)
		}

		operations := api.Group("/operations")
		{
			operations.GET("", h.Operation.List)
			operations.POST("", h.Operation.Create)
			operations.GET("/:id", h.Operation.Get)
			operations.PUT("/:id", h.Operation.Update)
			operations.DELETE("/:id", h.Operation.Delete)
		}

		timeTracking := api.Group("/time-tracking")
		{
			timeTracking.GET("", h.TimeTracking.List)
			timeTracking.POST("", h.TimeTracking.Start)
			timeTracking.PUT("/:id", h.TimeTracking.Stop)
			timeTracking.DELETE("/:id", h.TimeTracking.Delete)
		}

		quality := api.Group("/quality-control")
		{
			quality.GET("", h.Quality.List)
			quality.POST("", h.Quality.Create)
			quality.GET("/:id", h.Quality.Get)
		}

		api.GET("/dashboard/stats", h.Dashboard.Stats)
	}

	return r, svc
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"iss":   "oficina",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default test user
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test User", "user@test.com")
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedOrganization creates an organization linked to the given user
func SeedOrganization(t *testing.T, db *gorm.DB, userID, name string) *entity.Organization {
	t.Helper()
	now := time.Now()
	org := &entity.Organization{
		ID:        uuid.New().String()[:32],
		Name:      name,
		Slug:      service.Slugify(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("Failed to seed organization: %v", err)
	}
	link := &entity.UserOrganization{
		ID:             uuid.New().String()[:32],
		UserID:         userID,
		OrganizationID: org.ID,
		Role:           entity.OrgRoleAdmin,
		CreatedAt:      now,
	}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("Failed to seed user organization link: %v", err)
	}
	return org
}

// SeedProject creates a project in the given organization
func SeedProject(t *testing.T, db *gorm.DB, orgID, name string) *entity.Project {
	t.Helper()
	now := time.Now()
	project := &entity.Project{
		ID:             uuid.New().String()[:32],
		OrganizationID: orgID,
		Name:           name,
		Status:         entity.ProjectStatusActive,
		CreatedBy:      "test-user-001",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return project
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
