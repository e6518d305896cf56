package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/testutil"
)

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestDatalistPredefinedMontadoras(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := service.NewDatalistService(repos.Produto, repos.Aplicacao, nil)

	// Empty database: the predefined makes are still offered.
	datalists, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(datalists.Montadoras) != len(service.MontadorasPredefinidas) {
		t.Fatalf("got %d montadoras, want %d", len(datalists.Montadoras), len(service.MontadorasPredefinidas))
	}
	for _, m := range []string{"Volkswagen", "CITROËN", "Caoa Chery"} {
		if !contains(datalists.Montadoras, m) {
			t.Errorf("missing predefined montadora %q", m)
		}
	}
}

func TestDatalistTTL(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()

	agora := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	relogio := func() time.Time { return agora }
	svc := service.NewDatalistService(repos.Produto, repos.Aplicacao, relogio)

	seedProduto(t, db, &entity.Produto{Codigo: "P-1", Nome: "P", Grupo: "FREIO", Fornecedor: "COFAP"})

	datalists, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !contains(datalists.Grupos, "FREIO") {
		t.Fatalf("grupos = %v, want FREIO", datalists.Grupos)
	}

	// A write inside the TTL window is not visible yet.
	seedProduto(t, db, &entity.Produto{Codigo: "P-2", Nome: "P2", Grupo: "SUSPENSAO"})

	agora = agora.Add(service.DatalistTTL - time.Second)
	datalists, err = svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if contains(datalists.Grupos, "SUSPENSAO") {
		t.Fatal("cache refreshed before the TTL elapsed")
	}

	// Past the TTL the slot is recomputed.
	agora = agora.Add(2 * time.Second)
	datalists, err = svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !contains(datalists.Grupos, "SUSPENSAO") {
		t.Fatalf("grupos = %v, want SUSPENSAO after expiry", datalists.Grupos)
	}
	if !contains(datalists.Fornecedores, "COFAP") {
		t.Fatalf("fornecedores = %v, want COFAP", datalists.Fornecedores)
	}
}

func TestDatalistDedupesDBMontadoras(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := service.NewDatalistService(repos.Produto, repos.Aplicacao, nil)

	seedProduto(t, db, &entity.Produto{
		Codigo: "P-1",
		Nome:   "P",
		Aplicacoes: []entity.Aplicacao{
			{Veiculo: "C3", Montadora: "CITROËN"},
			{Veiculo: "KWID", Montadora: "RENAULT DO BRASIL"},
		},
	})

	datalists, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	vezes := 0
	for _, m := range datalists.Montadoras {
		if m == "CITROËN" {
			vezes++
		}
	}
	if vezes != 1 {
		t.Fatalf("CITROËN listed %d times, want 1", vezes)
	}
	if !contains(datalists.Montadoras, "RENAULT DO BRASIL") {
		t.Fatal("database montadora missing from the list")
	}
}
