package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"github.com/fabrimetal/oficina/internal/testutil"
	"github.com/google/uuid"
)

func TestTimerLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	org := testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")
	project := testutil.SeedProject(t, db, org.ID, "Frame Line")

	w := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
		"title": "Frame", "type": "assembly", "project_id": project.ID,
	}, token)
	woID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w2 := testutil.DoRequest(router, "POST", "/api/operations", map[string]interface{}{
		"type": "soldadura", "title": "Weld seams", "work_order_id": woID,
	}, token)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201 creating operation, got %d: %s", w2.Code, w2.Body.String())
	}
	opID := testutil.ParseResponse(w2)["data"].(map[string]interface{})["id"].(string)

	// Start a timer
	w3 := testutil.DoRequest(router, "POST", "/api/time-tracking", map[string]interface{}{
		"operation_id": opID, "notes": "first pass",
	}, token)
	if w3.Code != http.StatusCreated {
		t.Fatalf("Expected 201 starting timer, got %d: %s", w3.Code, w3.Body.String())
	}
	logID := testutil.ParseResponse(w3)["data"].(map[string]interface{})["id"].(string)

	// Starting the operation moves it to inProgress
	w4 := testutil.DoRequest(router, "GET", "/api/operations/"+opID, nil, token)
	opData := testutil.ParseResponse(w4)["data"].(map[string]interface{})
	if opData["status"] != "inProgress" {
		t.Errorf("Expected operation inProgress after start, got %v", opData["status"])
	}

	// A second start for the same operation and user conflicts
	w5 := testutil.DoRequest(router, "POST", "/api/time-tracking", map[string]interface{}{
		"operation_id": opID,
	}, token)
	if w5.Code != http.StatusConflict {
		t.Fatalf("Expected 409 on double start, got %d: %s", w5.Code, w5.Body.String())
	}

	// Backdate the running log so the stop produces a measurable duration
	started := time.Now().Add(-90 * time.Second)
	if err := db.Model(&entity.TimeLog{}).Where("id = ?", logID).
		Update("start_time", started).Error; err != nil {
		t.Fatalf("Failed to backdate time log: %v", err)
	}

	// Stop: 90 seconds floors to 1 minute
	w6 := testutil.DoRequest(router, "PUT", "/api/time-tracking/"+logID, nil, token)
	if w6.Code != http.StatusOK {
		t.Fatalf("Expected 200 stopping timer, got %d: %s", w6.Code, w6.Body.String())
	}
	logData := testutil.ParseResponse(w6)["data"].(map[string]interface{})
	if logData["duration"].(float64) != 1 {
		t.Errorf("Expected duration 1 minute, got %v", logData["duration"])
	}

	// Operation aggregate follows
	w7 := testutil.DoRequest(router, "GET", "/api/operations/"+opID, nil, token)
	opData2 := testutil.ParseResponse(w7)["data"].(map[string]interface{})
	if opData2["duration"].(float64) != 1 {
		t.Errorf("Expected operation duration 1, got %v", opData2["duration"])
	}

	// Stopping an already stopped timer conflicts
	w8 := testutil.DoRequest(router, "PUT", "/api/time-tracking/"+logID, nil, token)
	if w8.Code != http.StatusConflict {
		t.Fatalf("Expected 409 on double stop, got %d: %s", w8.Code, w8.Body.String())
	}

	// Deleting the log recomputes the aggregate back to zero
	w9 := testutil.DoRequest(router, "DELETE", "/api/time-tracking/"+logID, nil, token)
	if w9.Code != http.StatusOK {
		t.Fatalf("Expected 200 deleting time log, got %d: %s", w9.Code, w9.Body.String())
	}
	w10 := testutil.DoRequest(router, "GET", "/api/operations/"+opID, nil, token)
	opData3 := testutil.ParseResponse(w10)["data"].(map[string]interface{})
	if opData3["duration"].(float64) != 0 {
		t.Errorf("Expected operation duration 0 after delete, got %v", opData3["duration"])
	}
}

func TestTimerActiveFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	org := testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")
	project := testutil.SeedProject(t, db, org.ID, "Frame Line")

	w := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
		"title": "Frame", "type": "assembly", "project_id": project.ID,
	}, token)
	woID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	var opIDs []string
	for _, title := range []string{"Cut plates", "Drill holes"} {
		w2 := testutil.DoRequest(router, "POST", "/api/operations", map[string]interface{}{
			"type": "corte", "title": title, "work_order_id": woID,
		}, token)
		opIDs = append(opIDs, testutil.ParseResponse(w2)["data"].(map[string]interface{})["id"].(string))
	}

	// One running timer, one stopped
	w3 := testutil.DoRequest(router, "POST", "/api/time-tracking", map[string]interface{}{
		"operation_id": opIDs[0],
	}, token)
	if w3.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w3.Code, w3.Body.String())
	}
	w4 := testutil.DoRequest(router, "POST", "/api/time-tracking", map[string]interface{}{
		"operation_id": opIDs[1],
	}, token)
	stoppedID := testutil.ParseResponse(w4)["data"].(map[string]interface{})["id"].(string)
	testutil.DoRequest(router, "PUT", "/api/time-tracking/"+stoppedID, nil, token)

	w5 := testutil.DoRequest(router, "GET", "/api/time-tracking?active=true", nil, token)
	if w5.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	active := testutil.ParseResponse(w5)["data"].([]interface{})
	if len(active) != 1 {
		t.Fatalf("Expected 1 active timer, got %d", len(active))
	}

	w6 := testutil.DoRequest(router, "GET", "/api/time-tracking?operationId="+opIDs[1], nil, token)
	byOp := testutil.ParseResponse(w6)["data"].([]interface{})
	if len(byOp) != 1 {
		t.Fatalf("Expected 1 log for operation filter, got %d", len(byOp))
	}
}

func TestTimerStartUnknownOperation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")

	w := testutil.DoRequest(router, "POST", "/api/time-tracking", map[string]interface{}{
		"operation_id": uuid.New().String()[:32],
	}, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown operation, got %d: %s", w.Code, w.Body.String())
	}
}
