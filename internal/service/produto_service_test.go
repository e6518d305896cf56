package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type produtoFixture struct {
	db         *gorm.DB
	repos      *repository.Repositories
	svc        *service.ProdutoService
	imagens    *service.ImagemService
	uploadsDir string
}

func setupProdutoService(t *testing.T) *produtoFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	uploadsDir := t.TempDir()
	imagens, err := service.NewImagemService(repos.Imagem, uploadsDir, zap.NewNop())
	if err != nil {
		t.Fatalf("imagem service: %v", err)
	}
	similares := service.NewSimilaresService(repos.Produto)
	return &produtoFixture{
		db:         db,
		repos:      repos,
		svc:        service.NewProdutoService(db, repos, similares, imagens),
		imagens:    imagens,
		uploadsDir: uploadsDir,
	}
}

func TestCreateUppercasesFields(t *testing.T) {
	fx := setupProdutoService(t)
	ctx := context.Background()

	produto, err := fx.svc.Create(ctx, &service.ProdutoRequest{
		Nome:       "  amortecedor dianteiro ",
		Codigo:     "aml-981",
		Grupo:      "suspensão",
		Fornecedor: "cofap",
		Aplicacoes: []service.AplicacaoInput{
			{Veiculo: "gol g5", Ano: " 2010/2015 ", Montadora: "volkswagen"},
			{Veiculo: "   "}, // blank vehicle rows are dropped
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if produto.Nome != "AMORTECEDOR DIANTEIRO" || produto.Codigo != "AML-981" {
		t.Fatalf("fields not uppercased: %+v", produto)
	}
	if produto.Grupo != "SUSPENSÃO" {
		t.Fatalf("grupo = %q", produto.Grupo)
	}
	if len(produto.Aplicacoes) != 1 {
		t.Fatalf("got %d aplicacoes, want 1", len(produto.Aplicacoes))
	}
	if produto.Aplicacoes[0].Ano != "2010/2015" {
		t.Fatalf("ano = %q, want trimmed verbatim value", produto.Aplicacoes[0].Ano)
	}
}

func TestCreateDuplicateCodigo(t *testing.T) {
	fx := setupProdutoService(t)
	ctx := context.Background()

	if _, err := fx.svc.Create(ctx, &service.ProdutoRequest{Nome: "PRIMEIRA", Codigo: "ABC-1"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := fx.svc.Create(ctx, &service.ProdutoRequest{Nome: "SEGUNDA", Codigo: "abc-1"})
	var dup *service.DuplicateCodeError
	if !errors.As(err, &dup) {
		t.Fatalf("got err=%v, want DuplicateCodeError", err)
	}
	if dup.Nome != "PRIMEIRA" {
		t.Fatalf("conflict names %q, want the existing part", dup.Nome)
	}
}

func TestUpdateReconcilesAplicacoes(t *testing.T) {
	fx := setupProdutoService(t)
	ctx := context.Background()

	produto, err := fx.svc.Create(ctx, &service.ProdutoRequest{
		Nome:   "PECA",
		Codigo: "P-1",
		Aplicacoes: []service.AplicacaoInput{
			{Veiculo: "GOL", Ano: "2010/2015"},
			{Veiculo: "VOYAGE", Ano: "2012/2018"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var manter service.AplicacaoInput
	for _, a := range produto.Aplicacoes {
		if a.Veiculo == "GOL" {
			manter = service.AplicacaoInput{ID: a.ID, Veiculo: a.Veiculo, Ano: a.Ano}
		}
	}

	// Keep GOL with a new year, drop VOYAGE, add SAVEIRO.
	manter.Ano = "2011/2016"
	atualizado, err := fx.svc.Update(ctx, produto.ID, &service.ProdutoRequest{
		Nome:   "PECA",
		Codigo: "P-1",
		Aplicacoes: []service.AplicacaoInput{
			manter,
			{Veiculo: "SAVEIRO", Ano: "2014/..."},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(atualizado.Aplicacoes) != 2 {
		t.Fatalf("got %d aplicacoes, want 2", len(atualizado.Aplicacoes))
	}
	porVeiculo := map[string]entity.Aplicacao{}
	for _, a := range atualizado.Aplicacoes {
		porVeiculo[a.Veiculo] = a
	}
	if a, ok := porVeiculo["GOL"]; !ok || a.Ano != "2011/2016" || a.ID != manter.ID {
		t.Fatalf("GOL row not updated in place: %+v", porVeiculo)
	}
	if _, ok := porVeiculo["VOYAGE"]; ok {
		t.Fatal("VOYAGE row should have been deleted")
	}
	if _, ok := porVeiculo["SAVEIRO"]; !ok {
		t.Fatal("SAVEIRO row should have been created")
	}
}

func TestCloneCopiesEverything(t *testing.T) {
	fx := setupProdutoService(t)
	ctx := context.Background()

	outro := seedProduto(t, fx.db, &entity.Produto{Codigo: "SIM-1", Nome: "SIMILAR"})
	produto, err := fx.svc.Create(ctx, &service.ProdutoRequest{
		Nome:         "ORIGINAL",
		Codigo:       "ORI-1",
		Grupo:        "FREIO",
		SimilaresIDs: []uint{outro.ID},
		Aplicacoes: []service.AplicacaoInput{
			{Veiculo: "ONIX", Ano: "2017/..."},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clone, err := fx.svc.Clone(ctx, produto.ID)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}

	if !strings.HasPrefix(clone.Codigo, "ORI-1-CLONE-") {
		t.Fatalf("clone codigo = %q", clone.Codigo)
	}
	if clone.Nome != "ORIGINAL" || clone.Grupo != "FREIO" {
		t.Fatalf("clone fields: %+v", clone)
	}
	if len(clone.Aplicacoes) != 1 || clone.Aplicacoes[0].Veiculo != "ONIX" {
		t.Fatalf("clone aplicacoes: %+v", clone.Aplicacoes)
	}

	// The clone's similar links are symmetric too.
	if got := similarIDs(t, fx.db, clone.ID); len(got) != 1 || got[0] != outro.ID {
		t.Fatalf("clone similars = %v, want [%d]", got, outro.ID)
	}
	got := similarIDs(t, fx.db, outro.ID)
	if len(got) != 2 {
		t.Fatalf("similar part should point back at original and clone: %v", got)
	}
}

func TestDeleteRemovesOrphanImageFiles(t *testing.T) {
	fx := setupProdutoService(t)
	ctx := context.Background()

	compartilhado := "shared_foto.jpg"
	exclusivo := "only_foto.jpg"
	for _, f := range []string{compartilhado, exclusivo} {
		if err := os.WriteFile(filepath.Join(fx.uploadsDir, f), []byte("img"), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}

	alvo := seedProduto(t, fx.db, &entity.Produto{
		Codigo: "DEL-1",
		Nome:   "ALVO",
		Imagens: []entity.ImagemProduto{
			{Filename: compartilhado},
			{Filename: exclusivo},
		},
	})
	seedProduto(t, fx.db, &entity.Produto{
		Codigo:  "KEEP-1",
		Nome:    "OUTRO",
		Imagens: []entity.ImagemProduto{{Filename: compartilhado}},
	})

	if err := fx.svc.Delete(ctx, alvo.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := fx.repos.Produto.FindByID(ctx, alvo.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("part still loadable: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fx.uploadsDir, exclusivo)); !os.IsNotExist(err) {
		t.Fatal("orphan image file was not removed")
	}
	if _, err := os.Stat(filepath.Join(fx.uploadsDir, compartilhado)); err != nil {
		t.Fatal("shared image file must survive")
	}
}

func TestDetalheGroupsByMontadora(t *testing.T) {
	fx := setupProdutoService(t)
	ctx := context.Background()

	produto, err := fx.svc.Create(ctx, &service.ProdutoRequest{
		Nome:   "PECA",
		Codigo: "DET-1",
		Aplicacoes: []service.AplicacaoInput{
			{Veiculo: "GOL", Ano: "2010/2015", Montadora: "VOLKSWAGEN"},
			{Veiculo: "CELTA", Ano: "2006/2015", Montadora: "CHEVROLET"},
			{Veiculo: "EMPILHADEIRA", Ano: "2000/..."},
			{Veiculo: "VOYAGE", Ano: "2012/2018", Montadora: "VOLKSWAGEN"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	detalhe, err := fx.svc.Detalhe(ctx, produto.ID)
	if err != nil {
		t.Fatalf("detalhe: %v", err)
	}

	if len(detalhe.Agrupadas) != 3 {
		t.Fatalf("got %d groups: %+v", len(detalhe.Agrupadas), detalhe.Agrupadas)
	}
	if detalhe.Agrupadas[0].Montadora != "CHEVROLET" {
		t.Fatalf("first group = %q", detalhe.Agrupadas[0].Montadora)
	}
	ultimo := detalhe.Agrupadas[len(detalhe.Agrupadas)-1]
	if ultimo.Montadora != "Sem Montadora" {
		t.Fatalf("unassigned group must sort last, got %q", ultimo.Montadora)
	}
	for _, g := range detalhe.Agrupadas {
		if g.Montadora == "VOLKSWAGEN" && len(g.Aplicacoes) != 2 {
			t.Fatalf("VOLKSWAGEN group has %d rows", len(g.Aplicacoes))
		}
	}
}
