package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/fabrimetal/oficina/internal/testutil"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func seedQualityFixture(t *testing.T, db *gorm.DB, router *gin.Engine, token string) (woCode, opID string) {
	t.Helper()
	org := testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")
	project := testutil.SeedProject(t, db, org.ID, "Frame Line")

	w := testutil.DoRequest(router, "POST", "/api/work-orders", map[string]interface{}{
		"title": "Frame", "type": "assembly", "project_id": project.ID,
	}, token)
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	woID := data["id"].(string)
	woCode = data["code"].(string)

	w2 := testutil.DoRequest(router, "POST", "/api/operations", map[string]interface{}{
		"type": "pintura", "title": "Paint frame", "work_order_id": woID,
	}, token)
	opID = testutil.ParseResponse(w2)["data"].(map[string]interface{})["id"].(string)
	return woCode, opID
}

func TestQualityCheckPassedKeepsOperationStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	woCode, opID := seedQualityFixture(t, db, router, token)

	w := testutil.DoRequest(router, "POST", "/api/quality-control", map[string]interface{}{
		"operation_id": opID,
		"check_type":   "Visual",
		"status":       "passed",
		"measurements": map[string]interface{}{"gloss": 82.5},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	qr := data["qr_code"].(string)
	if !strings.HasPrefix(qr, "QR-"+woCode+"-") {
		t.Errorf("Expected derived QR code with work order code, got %q", qr)
	}

	// Passing check leaves the operation alone
	w2 := testutil.DoRequest(router, "GET", "/api/operations/"+opID, nil, token)
	opData := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if opData["status"] != "pending" {
		t.Errorf("Expected operation still pending, got %v", opData["status"])
	}
}

func TestQualityCheckFailedFlagsOperation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	_, opID := seedQualityFixture(t, db, router, token)

	w := testutil.DoRequest(router, "POST", "/api/quality-control", map[string]interface{}{
		"operation_id": opID,
		"check_type":   "Measurement",
		"status":       "failed",
		"notes":        "thickness below tolerance",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w2 := testutil.DoRequest(router, "GET", "/api/operations/"+opID, nil, token)
	opData := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if opData["status"] != "failed" {
		t.Errorf("Expected operation failed after failed check, got %v", opData["status"])
	}
}

func TestQualityCheckValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	_, opID := seedQualityFixture(t, db, router, token)

	// Unknown check type
	w := testutil.DoRequest(router, "POST", "/api/quality-control", map[string]interface{}{
		"operation_id": opID, "check_type": "Sniff",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown check type, got %d: %s", w.Code, w.Body.String())
	}

	// Unknown status
	w2 := testutil.DoRequest(router, "POST", "/api/quality-control", map[string]interface{}{
		"operation_id": opID, "check_type": "Visual", "status": "maybe",
	}, token)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown status, got %d: %s", w2.Code, w2.Body.String())
	}

	// Missing operation
	w3 := testutil.DoRequest(router, "POST", "/api/quality-control", map[string]interface{}{
		"check_type": "Visual",
	}, token)
	if w3.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing operation_id, got %d: %s", w3.Code, w3.Body.String())
	}
}

func TestQualityCheckListFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	_, opID := seedQualityFixture(t, db, router, token)

	testutil.DoRequest(router, "POST", "/api/quality-control", map[string]interface{}{
		"operation_id": opID, "check_type": "Visual", "status": "passed",
	}, token)

	w := testutil.DoRequest(router, "GET", "/api/quality-control?status=passed&checkType=Visual&operationId="+opID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 check, got %d", len(items))
	}

	w2 := testutil.DoRequest(router, "GET", "/api/quality-control?status=failed", nil, token)
	data2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if failed, ok := data2["items"].([]interface{}); ok && len(failed) != 0 {
		t.Error("Expected no failed checks")
	}
}
