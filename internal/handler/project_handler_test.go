package handler_test

import (
	"net/http"
	"testing"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"github.com/fabrimetal/oficina/internal/testutil"
)

func TestProjectCRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")

	// Create
	w := testutil.DoRequest(router, "POST", "/api/projects", map[string]interface{}{
		"name":        "Conveyor Rebuild",
		"description": "Full rebuild of line 2 conveyor",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != "active" {
		t.Errorf("Expected default status active, got %v", data["status"])
	}
	id := data["id"].(string)

	// Get
	w2 := testutil.DoRequest(router, "GET", "/api/projects/"+id, nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}

	// Update
	w3 := testutil.DoRequest(router, "PUT", "/api/projects/"+id, map[string]interface{}{
		"status": "onHold",
	}, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	if testutil.ParseResponse(w3)["data"].(map[string]interface{})["status"] != "onHold" {
		t.Error("Expected status onHold after update")
	}

	// List with status filter
	w4 := testutil.DoRequest(router, "GET", "/api/projects?status=onHold", nil, token)
	items := testutil.ParseResponse(w4)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 project on hold, got %d", len(items))
	}

	// Delete
	w5 := testutil.DoRequest(router, "DELETE", "/api/projects/"+id, nil, token)
	if w5.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	w6 := testutil.DoRequest(router, "GET", "/api/projects/"+id, nil, token)
	if w6.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 after delete, got %d", w6.Code)
	}
}

func TestProjectValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")

	// Missing name
	w := testutil.DoRequest(router, "POST", "/api/projects", map[string]interface{}{
		"description": "nameless",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing name, got %d: %s", w.Code, w.Body.String())
	}

	// Unknown status
	w2 := testutil.DoRequest(router, "POST", "/api/projects", map[string]interface{}{
		"name": "Bad Status", "status": "paused",
	}, token)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown status, got %d: %s", w2.Code, w2.Body.String())
	}
}

func TestProjectDeleteCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	org := testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")
	project := testutil.SeedProject(t, db, org.ID, "Doomed Project")

	w := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
		"title": "Doomed WO", "type": "part", "project_id": project.ID,
	}, token)
	woID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w2 := testutil.DoRequest(router, "POST", "/api/operations", map[string]interface{}{
		"type": "corte", "title": "Doomed op", "work_order_id": woID,
	}, token)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w2.Code, w2.Body.String())
	}

	w3 := testutil.DoRequest(router, "DELETE", "/api/projects/"+project.ID, nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200 deleting project, got %d: %s", w3.Code, w3.Body.String())
	}

	var woCount, opCount int64
	db.Model(&entity.WorkOrder{}).Where("project_id = ?", project.ID).Count(&woCount)
	db.Model(&entity.Operation{}).Where("work_order_id = ?", woID).Count(&opCount)
	if woCount != 0 || opCount != 0 {
		t.Errorf("Expected cascade delete, still have %d work orders and %d operations", woCount, opCount)
	}
}
