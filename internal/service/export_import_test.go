package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/testutil"
	"go.uber.org/zap"
)

const csvHeader = "codigo,nome,grupo,fornecedor,conversoes,medidas,observacoes,aplicacoes_json"

func TestWriteCSV(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := service.NewExportService(repos.Produto)
	ctx := context.Background()

	seedProduto(t, db, &entity.Produto{
		Codigo:      "AML-981",
		Nome:        "AMORTECEDOR \"HEAVY DUTY\"",
		Grupo:       "SUSPENSÃO",
		Observacoes: "COM VIRGULA, E ACENTO Ç",
		Aplicacoes: []entity.Aplicacao{
			{Veiculo: "GOL G5", Ano: "2010/2015", Motor: "1.6", Montadora: "VOLKSWAGEN"},
		},
	})

	var buf bytes.Buffer
	if err := svc.WriteCSV(ctx, &buf, repository.SearchFilters{}); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if lines[0] != csvHeader {
		t.Fatalf("header = %q", lines[0])
	}

	row := lines[1]
	if !strings.HasPrefix(row, `"AML-981",`) {
		t.Fatalf("fields must always be quoted: %q", row)
	}
	if !strings.Contains(row, `"AMORTECEDOR ""HEAVY DUTY""",`) {
		t.Fatalf("inner quotes must be doubled: %q", row)
	}
	if !strings.Contains(row, "SUSPENSÃO") || !strings.Contains(row, "Ç") {
		t.Fatalf("accented text must survive verbatim: %q", row)
	}

	// The last column is a parseable JSON array of applications.
	start := strings.Index(row, `"[`)
	if start < 0 {
		t.Fatalf("no aplicacoes_json column in %q", row)
	}
	jsonField := strings.TrimSuffix(row[start+1:], `"`)
	jsonField = strings.ReplaceAll(jsonField, `""`, `"`)
	var aplicacoes []map[string]string
	if err := json.Unmarshal([]byte(jsonField), &aplicacoes); err != nil {
		t.Fatalf("aplicacoes_json not parseable: %v (%q)", err, jsonField)
	}
	if len(aplicacoes) != 1 || aplicacoes[0]["veiculo"] != "GOL G5" || aplicacoes[0]["ano"] != "2010/2015" {
		t.Fatalf("aplicacoes_json = %+v", aplicacoes)
	}
}

func TestWriteCSVRespectsFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := service.NewExportService(repos.Produto)
	ctx := context.Background()

	seedProduto(t, db, &entity.Produto{Codigo: "A-1", Nome: "AMORTECEDOR", Grupo: "SUSPENSAO"})
	seedProduto(t, db, &entity.Produto{Codigo: "B-1", Nome: "PASTILHA", Grupo: "FREIO"})

	var buf bytes.Buffer
	if err := svc.WriteCSV(ctx, &buf, repository.SearchFilters{Grupo: "FREIO"}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "A-1") || !strings.Contains(out, "B-1") {
		t.Fatalf("filtered export wrong: %q", out)
	}
}

func newImportService(t *testing.T) (*service.ImportService, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return service.NewImportService(db, repos, nil, zap.NewNop()), repos
}

func TestImportCSVCreatesAndUpdates(t *testing.T) {
	svc, repos := newImportService(t)
	ctx := context.Background()

	csv1 := csvHeader + "\n" +
		`"abc-1","pivo de suspensao","suspensao","nakata","","","","[{""veiculo"":""GOL G5"",""ano"":""2010/2015"",""montadora"":""VOLKSWAGEN""}]"` + "\n"

	result, err := svc.ImportCSV(ctx, strings.NewReader(csv1))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Criados != 1 || result.Atualizados != 0 || result.Ignorados != 0 {
		t.Fatalf("result = %+v", result)
	}

	produto, err := repos.Produto.ExistsCodigo(ctx, "ABC-1", 0)
	if err != nil || produto == nil {
		t.Fatalf("imported part not found: %v", err)
	}
	if produto.Nome != "PIVO DE SUSPENSAO" {
		t.Fatalf("nome = %q, want uppercased", produto.Nome)
	}
	carregado, err := repos.Produto.FindByID(ctx, produto.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(carregado.Aplicacoes) != 1 || carregado.Aplicacoes[0].Veiculo != "GOL G5" {
		t.Fatalf("aplicacoes = %+v", carregado.Aplicacoes)
	}

	// Re-import: blank fields keep stored values, applications are
	// replaced by the file's.
	csv2 := csvHeader + "\n" +
		`"ABC-1","","","cofap","","","","[{""veiculo"":""VOYAGE"",""ano"":""2012/2018""}]"` + "\n"
	result, err = svc.ImportCSV(ctx, strings.NewReader(csv2))
	if err != nil {
		t.Fatalf("reimport: %v", err)
	}
	if result.Atualizados != 1 || result.Criados != 0 {
		t.Fatalf("result = %+v", result)
	}

	carregado, err = repos.Produto.FindByID(ctx, produto.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if carregado.Nome != "PIVO DE SUSPENSAO" {
		t.Fatalf("blank nome overwrote stored value: %q", carregado.Nome)
	}
	if carregado.Fornecedor != "COFAP" {
		t.Fatalf("fornecedor = %q", carregado.Fornecedor)
	}
	if len(carregado.Aplicacoes) != 1 || carregado.Aplicacoes[0].Veiculo != "VOYAGE" {
		t.Fatalf("aplicacoes not replaced: %+v", carregado.Aplicacoes)
	}
}

func TestImportCSVDuplicateRows(t *testing.T) {
	svc, _ := newImportService(t)

	data := csvHeader + "\n" +
		`"DUP-1","PRIMEIRA","","","","","",""` + "\n" +
		`"dup-1","SEGUNDA","","","","","",""` + "\n" +
		`"","SEM CODIGO","","","","","",""` + "\n"

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(data))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Total != 3 || result.Criados != 1 || result.Ignorados != 2 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.CodigosDupes) != 1 || result.CodigosDupes[0] != "DUP-1" {
		t.Fatalf("dupes = %v", result.CodigosDupes)
	}
}

func TestImportCSVMissingCodigoColumn(t *testing.T) {
	svc, _ := newImportService(t)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("nome,grupo\nX,Y\n"))
	if err == nil {
		t.Fatal("expected an error for a file without the codigo column")
	}
}

func TestImportCSVLatin1Fallback(t *testing.T) {
	svc, repos := newImportService(t)
	ctx := context.Background()

	// "PIVÔ" in ISO-8859-1: Ô is the single byte 0xD4.
	data := []byte("codigo,nome\nLAT-1,PIV\xd4\n")

	result, err := svc.ImportCSV(ctx, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Criados != 1 {
		t.Fatalf("result = %+v", result)
	}

	produto, err := repos.Produto.ExistsCodigo(ctx, "LAT-1", 0)
	if err != nil || produto == nil {
		t.Fatalf("part not found: %v", err)
	}
	if produto.Nome != "PIVÔ" {
		t.Fatalf("nome = %q, want decoded PIVÔ", produto.Nome)
	}
}

func TestAplicacaoTextoParser(t *testing.T) {
	parser := service.NewAplicacaoTextoParser()

	aplicacoes := parser.Parse("VW-GOL 2010/2015 | FIAT-UNO 1995/...")
	if len(aplicacoes) != 2 {
		t.Fatalf("got %d records: %+v", len(aplicacoes), aplicacoes)
	}
	if aplicacoes[0].Montadora != "VW" || aplicacoes[0].Veiculo != "GOL" || aplicacoes[0].Ano != "2010/2015" {
		t.Fatalf("first record = %+v", aplicacoes[0])
	}
	if aplicacoes[1].Montadora != "FIAT" || aplicacoes[1].Veiculo != "UNO" || aplicacoes[1].Ano != "1995/..." {
		t.Fatalf("second record = %+v", aplicacoes[1])
	}

	// A segment with one year range shares it across its vehicles.
	aplicacoes = parser.Parse("GOL VOYAGE 2010/2015")
	if len(aplicacoes) != 2 {
		t.Fatalf("got %d records: %+v", len(aplicacoes), aplicacoes)
	}
	for _, a := range aplicacoes {
		if a.Ano != "2010/2015" {
			t.Fatalf("year not shared: %+v", a)
		}
	}

	if got := parser.Parse("  |  "); len(got) != 0 {
		t.Fatalf("blank segments produced %v", got)
	}
}
