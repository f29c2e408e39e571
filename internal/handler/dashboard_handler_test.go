package handler_test

import (
	"net/http"
	"testing"

	"github.com/fabrimetal/oficina/internal/testutil"
)

func TestDashboardStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	org := testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")
	project := testutil.SeedProject(t, db, org.ID, "Frame Line")

	w := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
		"title": "Frame", "type": "assembly", "project_id": project.ID,
	}, token)
	woID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	testutil.DoRequest(router, "POST", "/api/tasks", map[string]interface{}{
		"title": "Order stock", "project_id": project.ID,
	}, token)

	w2 := testutil.DoRequest(router, "POST", "/api/operations", map[string]interface{}{
		"type": "corte", "title": "Cut plates", "work_order_id": woID,
	}, token)
	opID := testutil.ParseResponse(w2)["data"].(map[string]interface{})["id"].(string)
	testutil.DoRequest(router, "POST", "/api/time-tracking", map[string]interface{}{
		"operation_id": opID,
	}, token)

	w3 := testutil.DoRequest(router, "GET", "/api/dashboard/stats", nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	data := testutil.ParseResponse(w3)["data"].(map[string]interface{})

	projects := data["projects"].(map[string]interface{})
	if projects["active"].(float64) != 1 {
		t.Errorf("Expected 1 active project, got %v", projects["active"])
	}
	workOrders := data["work_orders"].(map[string]interface{})
	if workOrders["pending"].(float64) != 1 {
		t.Errorf("Expected 1 pending work order, got %v", workOrders["pending"])
	}
	if data["task_count"].(float64) != 1 {
		t.Errorf("Expected 1 task, got %v", data["task_count"])
	}
	if data["active_timers"].(float64) != 1 {
		t.Errorf("Expected 1 active timer, got %v", data["active_timers"])
	}
}
