package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"github.com/xuri/excelize/v2"
)

// exportColumns is the interchange column order. aplicacoes_json carries
// the part's applications as a JSON array in the last column.
var exportColumns = []string{
	"codigo", "nome", "grupo", "fornecedor", "conversoes", "medidas", "observacoes", "aplicacoes_json",
}

// aplicacaoJSON is the application shape inside aplicacoes_json.
type aplicacaoJSON struct {
	Veiculo   string `json:"veiculo"`
	Ano       string `json:"ano"`
	Motor     string `json:"motor"`
	ConfMtr   string `json:"conf_mtr"`
	Montadora string `json:"montadora"`
}

// ExportService renders search results as CSV or XLSX, reusing the search
// filters so an export always matches what the operator sees.
type ExportService struct {
	produtoRepo *repository.ProdutoRepository
}

// NewExportService creates the export service.
func NewExportService(produtoRepo *repository.ProdutoRepository) *ExportService {
	return &ExportService{produtoRepo: produtoRepo}
}

// WriteCSV streams the filtered catalog as CSV. Every field is wrapped in
// double quotes with inner quotes doubled, matching the interchange format
// the importer and external consumers expect.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, f repository.SearchFilters) error {
	produtos, err := s.produtoRepo.SearchAll(ctx, f)
	if err != nil {
		return fmt.Errorf("search for export: %w", err)
	}

	if _, err := io.WriteString(w, strings.Join(exportColumns, ",")+"\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, produto := range produtos {
		row, err := exportRow(&produto)
		if err != nil {
			return err
		}
		quoted := make([]string, len(row))
		for i, field := range row {
			quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		if _, err := io.WriteString(w, strings.Join(quoted, ",")+"\n"); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return nil
}

// WriteXLSX renders the same rows as a spreadsheet.
func (s *ExportService) WriteXLSX(ctx context.Context, f repository.SearchFilters) (*excelize.File, error) {
	produtos, err := s.produtoRepo.SearchAll(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("search for export: %w", err)
	}

	file := excelize.NewFile()
	const sheet = "Pecas"
	file.SetSheetName("Sheet1", sheet)

	boldStyle, _ := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, header := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		file.SetCellValue(sheet, col+"1", header)
		file.SetCellStyle(sheet, col+"1", col+"1", boldStyle)
	}

	for rowIdx, produto := range produtos {
		row, err := exportRow(&produto)
		if err != nil {
			return nil, err
		}
		for i, field := range row {
			col, _ := excelize.ColumnNumberToName(i + 1)
			file.SetCellValue(sheet, fmt.Sprintf("%s%d", col, rowIdx+2), field)
		}
	}

	return file, nil
}

func exportRow(produto *entity.Produto) ([]string, error) {
	aplicacoes := make([]aplicacaoJSON, 0, len(produto.Aplicacoes))
	for _, a := range produto.Aplicacoes {
		aplicacoes = append(aplicacoes, aplicacaoJSON{
			Veiculo:   a.Veiculo,
			Ano:       a.Ano,
			Motor:     a.Motor,
			ConfMtr:   a.ConfMtr,
			Montadora: a.Montadora,
		})
	}

	// Accented text stays readable in the file, so no HTML escaping.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(aplicacoes); err != nil {
		return nil, fmt.Errorf("encode aplicacoes of %s: %w", produto.Codigo, err)
	}

	return []string{
		produto.Codigo,
		produto.Nome,
		produto.Grupo,
		produto.Fornecedor,
		produto.Conversoes,
		produto.Medidas,
		produto.Observacoes,
		strings.TrimRight(buf.String(), "\n"),
	}, nil
}
