package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidateSortParamsDefaults(t *testing.T) {
	sortBy, order, ok := validateSortParams("", "")
	if !ok {
		t.Fatal("expected empty sort params to be valid")
	}
	if sortBy != "createdAt" || order != -1 {
		t.Fatalf("expected createdAt desc by default, got %s %d", sortBy, order)
	}
}

func TestValidateSortParamsAscending(t *testing.T) {
	sortBy, order, ok := validateSortParams("views", "asc")
	if !ok {
		t.Fatal("expected views/asc to be valid")
	}
	if sortBy != "views" || order != 1 {
		t.Fatalf("expected views asc, got %s %d", sortBy, order)
	}
}

func TestValidateSortParamsRejectsUnknownField(t *testing.T) {
	// Sort fields are whitelisted; an arbitrary field name would let clients
	// probe hidden document fields.
	if _, _, ok := validateSortParams("passwordHash", "desc"); ok {
		t.Fatal("expected unknown sort field to be rejected")
	}
}

func TestValidateSortParamsRejectsUnknownOrder(t *testing.T) {
	if _, _, ok := validateSortParams("views", "sideways"); ok {
		t.Fatal("expected unknown sort order to be rejected")
	}
}

func TestUpdateVideoRejectsMalformedBody(t *testing.T) {
	videoID := primitive.NewObjectID()

	body := bytes.NewBufferString(`{"title":`)
	req := httptest.NewRequest("PATCH", "/videos/"+videoID.Hex(), body)
	req.Header.Set("Content-Type", "application/json")

	c, w := testContext(req)
	c.Params = gin.Params{{Key: "videoId", Value: videoID.Hex()}}
	c.Set("userId", primitive.NewObjectID())

	// Binding runs before any database access, so a nil database proves the
	// handler rejects the body up front.
	UpdateVideo(nil, nil)(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}
