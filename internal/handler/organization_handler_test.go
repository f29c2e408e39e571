package handler_test

import (
	"net/http"
	"testing"

	"github.com/fabrimetal/oficina/internal/model/entity"
	"github.com/fabrimetal/oficina/internal/testutil"
)

func TestOrganizationLazyCreation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.GenerateTestToken("fresh-user-42", "Fresh User", "fresh@test.com")

	// First authenticated request creates the organization on the fly
	w := testutil.DoRequest(router, "GET", "/api/organization", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	orgID := data["id"].(string)
	if data["slug"] != "org-fresh-us" {
		t.Errorf("Expected slug org-fresh-us, got %v", data["slug"])
	}

	// Repeated requests resolve to the same organization
	w2 := testutil.DoRequest(router, "GET", "/api/organization", nil, token)
	data2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data2["id"] != orgID {
		t.Errorf("Expected stable organization %s, got %v", orgID, data2["id"])
	}

	var count int64
	db.Model(&entity.Organization{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected exactly 1 organization, got %d", count)
	}
	var links int64
	db.Model(&entity.UserOrganization{}).Where("user_id = ?", "fresh-user-42").Count(&links)
	if links != 1 {
		t.Errorf("Expected exactly 1 membership link, got %d", links)
	}
}

func TestOrganizationUpdateRecomputesSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := testutil.SetupAPI(db)
	token := testutil.DefaultTestToken()
	testutil.SeedOrganization(t, db, "test-user-001", "Metalworks")

	w := testutil.DoRequest(router, "PUT", "/api/organization", map[string]interface{}{
		"name":        "Serralharia São João",
		"description": "Steel fabrication shop",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["slug"] != "serralharia-sao-joao" {
		t.Errorf("Expected recomputed slug, got %v", data["slug"])
	}
	if data["description"] != "Steel fabrication shop" {
		t.Errorf("Expected updated description, got %v", data["description"])
	}
}
