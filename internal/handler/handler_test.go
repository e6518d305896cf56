package handler_test

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/config"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/handler"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/middleware"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	cfg := &config.Config{}
	cfg.Auth = config.AuthConfig{JWTSecret: testutil.JWTSecret, TokenExpire: time.Hour, Issuer: "test"}
	cfg.Storage.UploadsDir = t.TempDir()

	services, err := service.NewServices(db, repos, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("services: %v", err)
	}
	handlers := handler.NewHandlers(services)

	r := testutil.SetupRouter()
	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", handlers.Auth.Login)
	v1.GET("/busca", handlers.Produto.Buscar)
	v1.GET("/pecas/:id", handlers.Produto.Detalhe)
	v1.GET("/datalists", handlers.Datalist.Get)

	authorized := v1.Group("", middleware.JWTAuth(testutil.JWTSecret))
	authorized.POST("/pecas", handlers.Produto.Create)
	authorized.DELETE("/pecas/:id", handlers.Produto.Delete)

	return r, db
}

func TestCreateRequiresAuth(t *testing.T) {
	r, _ := setupAPI(t)

	body := map[string]interface{}{"nome": "PECA", "codigo": "P-1"}
	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/pecas", body, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestCreateAndSearchFlow(t *testing.T) {
	r, _ := setupAPI(t)
	token := testutil.DefaultTestToken()

	body := map[string]interface{}{
		"nome":   "amortecedor dianteiro",
		"codigo": "aml-981",
		"grupo":  "suspensao",
		"aplicacoes": []map[string]interface{}{
			{"veiculo": "gol g5", "ano": "2010/2015", "montadora": "volkswagen"},
		},
	}
	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/pecas", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 0 {
		t.Fatalf("create envelope = %v", resp)
	}

	// Duplicate code maps to 409.
	w = testutil.DoRequest(r, http.MethodPost, "/api/v1/pecas", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", w.Code)
	}

	// Public search finds the part through its vehicle.
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/busca?termo=gol", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("busca status = %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["total"].(float64) != 1 {
		t.Fatalf("busca total = %v", data["total"])
	}
	items := data["items"].([]interface{})
	item := items[0].(map[string]interface{})
	if item["codigo"] != "AML-981" {
		t.Fatalf("item = %v", item)
	}

	// Detail works without a session too.
	id := int(item["id"].(float64))
	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/pecas/"+strconv.Itoa(id), nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("detalhe status = %d", w.Code)
	}
}

func TestDetalheNotFound(t *testing.T) {
	r, _ := setupAPI(t)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/pecas/9999", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40400 {
		t.Fatalf("envelope code = %v", resp["code"])
	}
}

func TestDatalistsEndpoint(t *testing.T) {
	r, _ := setupAPI(t)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/datalists", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	montadoras := data["montadoras"].([]interface{})
	if len(montadoras) == 0 {
		t.Fatal("predefined montadoras missing")
	}
}
