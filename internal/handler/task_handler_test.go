package handler_test

import (
	"net/http"
	"testing"

	"github.com/fabrimetal/oficina/internal/testutil"
)

func TestTaskCRUDAndWorkOrderLink(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	org := testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")
	project := testutil.SeedProject(t, db, org.ID, "Frame Line")

	w := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
		"title": "Frame", "type": "assembly", "project_id": project.ID,
	}, token)
	woID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// Standalone task
	w2 := testutil.DoRequest(router, "POST", "/api/tasks", map[string]interface{}{
		"title": "Order raw stock", "project_id": project.ID,
	}, token)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w2.Code, w2.Body.String())
	}
	data := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data["status"] != "pending" {
		t.Errorf("Expected default status pending, got %v", data["status"])
	}

	// Task attached to a work order
	w3 := testutil.DoRequest(router, "POST", "/api/tasks", map[string]interface{}{
		"title": "Fit brackets", "project_id": project.ID, "work_order_id": woID,
	}, token)
	if w3.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w3.Code, w3.Body.String())
	}
	taskID := testutil.ParseResponse(w3)["data"].(map[string]interface{})["id"].(string)

	// Filter by work order
	w4 := testutil.DoRequest(router, "GET", "/api/tasks?workOrderId="+woID, nil, token)
	items := testutil.ParseResponse(w4)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 task for work order, got %d", len(items))
	}

	// Update
	w5 := testutil.DoRequest(router, "PUT", "/api/tasks/"+taskID, map[string]interface{}{
		"status": "inProgress",
	}, token)
	if w5.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w5.Code, w5.Body.String())
	}

	// Delete
	w6 := testutil.DoRequest(router, "DELETE", "/api/tasks/"+taskID, nil, token)
	if w6.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w6.Code, w6.Body.String())
	}
}

func TestTaskWorkOrderMustMatchProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	org := testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")
	projectA := testutil.SeedProject(t, db, org.ID, "Project A")
	projectB := testutil.SeedProject(t, db, org.ID, "Project B")

	w := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
		"title": "WO in A", "type": "part", "project_id": projectA.ID,
	}, token)
	woID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// Work order from another project is rejected
	w2 := testutil.DoRequest(router, "POST", "/api/tasks", map[string]interface{}{
		"title": "Cross-project task", "project_id": projectB.ID, "work_order_id": woID,
	}, token)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for mismatched work order, got %d: %s", w2.Code, w2.Body.String())
	}
}
