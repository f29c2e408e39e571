package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/fabrimetal/oficina/internal/testutil"
)

func TestWorkOrderCodeSequence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	org := testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")
	project := testutil.SeedProject(t, db, org.ID, "Frame Line")

	year := time.Now().Year()
	for i := 1; i <= 3; i++ {
		w := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
			"title":      fmt.Sprintf("Chassis %d", i),
			"type":       "assembly",
			"project_id": project.ID,
		}, token)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
		resp := testutil.ParseResponse(w)
		data := resp["data"].(map[string]interface{})
		wantCode := fmt.Sprintf("WO-%d-%03d", year, i)
		if data["code"] != wantCode {
			t.Errorf("Expected code %s, got %v", wantCode, data["code"])
		}
		if data["status"] != "pending" {
			t.Errorf("Expected status pending, got %v", data["status"])
		}
		if data["priority"] != "medium" {
			t.Errorf("Expected default priority medium, got %v", data["priority"])
		}
	}
}

func TestWorkOrderDeleteGuard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	org := testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")
	project := testutil.SeedProject(t, db, org.ID, "Frame Line")

	w := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
		"title": "Parent Assembly", "type": "assembly", "project_id": project.ID,
	}, token)
	parentID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w2 := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
		"title": "Child Part", "type": "part", "project_id": project.ID,
		"parent_id": parentID,
	}, token)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w2.Code, w2.Body.String())
	}
	childID := testutil.ParseResponse(w2)["data"].(map[string]interface{})["id"].(string)

	// Parent with children cannot be deleted
	w3 := testutil.DoRequest(router, "DELETE", "/api/work-orders/"+parentID, nil, token)
	if w3.Code != http.StatusConflict {
		t.Fatalf("Expected 409 deleting parent with children, got %d: %s", w3.Code, w3.Body.String())
	}

	// Detach the child, then the parent can go
	w4 := testutil.DoRequest(router, "PUT", "/api/work-orders/"+childID, map[string]interface{}{
		"detach": true,
	}, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("Expected 200 detaching child, got %d: %s", w4.Code, w4.Body.String())
	}
	data := testutil.ParseResponse(w4)["data"].(map[string]interface{})
	if data["parent_id"] != nil {
		t.Errorf("Expected nil parent_id after detach, got %v", data["parent_id"])
	}

	w5 := testutil.DoRequest(router, "DELETE", "/api/work-orders/"+parentID, nil, token)
	if w5.Code != http.StatusOK {
		t.Fatalf("Expected 200 deleting childless parent, got %d: %s", w5.Code, w5.Body.String())
	}
}

func TestWorkOrderStatusTransitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	org := testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")
	project := testutil.SeedProject(t, db, org.ID, "Frame Line")

	w := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
		"title": "Bracket", "type": "part", "project_id": project.ID,
	}, token)
	id := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// pending -> completed is not allowed
	w2 := testutil.DoRequest(router, "PUT", "/api/work-orders/"+id, map[string]interface{}{
		"status": "completed",
	}, token)
	if w2.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for pending->completed, got %d: %s", w2.Code, w2.Body.String())
	}

	// pending -> inProgress -> completed is the legal path
	w3 := testutil.DoRequest(router, "PUT", "/api/work-orders/"+id, map[string]interface{}{
		"status": "inProgress",
	}, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200 for pending->inProgress, got %d: %s", w3.Code, w3.Body.String())
	}

	w4 := testutil.DoRequest(router, "PUT", "/api/work-orders/"+id, map[string]interface{}{
		"status": "completed",
	}, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("Expected 200 for inProgress->completed, got %d: %s", w4.Code, w4.Body.String())
	}
	data := testutil.ParseResponse(w4)["data"].(map[string]interface{})
	if data["completed_at"] == nil {
		t.Error("Expected completed_at to be stamped on completion")
	}

	// completed is terminal
	w5 := testutil.DoRequest(router, "PUT", "/api/work-orders/"+id, map[string]interface{}{
		"status": "inProgress",
	}, token)
	if w5.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for completed->inProgress, got %d: %s", w5.Code, w5.Body.String())
	}

	// unknown status is a validation error
	w6 := testutil.DoRequest(router, "PUT", "/api/work-orders/"+id, map[string]interface{}{
		"status": "archived",
	}, token)
	if w6.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown status, got %d: %s", w6.Code, w6.Body.String())
	}
}

func TestWorkOrderTenantIsolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)

	tokenA := testutil.GenerateTestToken("user-a", "User A", "a@test.com")
	tokenB := testutil.GenerateTestToken("user-b", "User B", "b@test.com")
	orgA := testutil.SeedOrganization(t, db, "user-a", "Org A")
	testutil.SeedOrganization(t, db, "user-b", "Org B")
	projectA := testutil.SeedProject(t, db, orgA.ID, "Project A")

	w := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
		"title": "Secret Order", "type": "service", "project_id": projectA.ID,
	}, tokenA)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	id := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// Another tenant sees it as not found
	w2 := testutil.DoRequest(router, "GET", "/api/work-orders/"+id, nil, tokenB)
	if w2.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 across tenants, got %d: %s", w2.Code, w2.Body.String())
	}

	// Nor can it create a work order against a foreign project
	w3 := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
		"title": "Hijack", "type": "part", "project_id": projectA.ID,
	}, tokenB)
	if w3.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 creating against foreign project, got %d: %s", w3.Code, w3.Body.String())
	}

	// Unauthenticated requests are rejected outright
	w4 := testutil.DoRequest(router, "GET", "/api/work-orders", nil, "")
	if w4.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without token, got %d: %s", w4.Code, w4.Body.String())
	}
}
