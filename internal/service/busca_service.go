package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
)

// GrupoBusca groups a result page by "montadora veiculo ano" when the
// search filtered on manufacturer or application.
type GrupoBusca struct {
	Chave    string           `json:"chave"`
	Produtos []entity.Produto `json:"produtos"`
}

// BuscaResult is one page of search results.
type BuscaResult struct {
	Items      []entity.Produto `json:"items"`
	Grupos     []GrupoBusca     `json:"grupos,omitempty"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// Buscar runs the part search and paginates by distinct part. With a
// manufacturer or application filter the page is additionally grouped by
// vehicle, keeping only each part's applications that match the filter.
func (s *ProdutoService) Buscar(ctx context.Context, f repository.SearchFilters, page, pageSize int, sortBy, sortDir string) (*BuscaResult, error) {
	produtos, total, err := s.repos.Produto.Search(ctx, f, page, pageSize, sortBy, sortDir)
	if err != nil {
		return nil, fmt.Errorf("search produtos: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	result := &BuscaResult{
		Items:      produtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}

	if f.Montadora != "" || f.AplicacaoTermo != "" {
		result.Grupos = agruparPorVeiculo(produtos, f)
	}

	return result, nil
}

// agruparPorVeiculo regroups a page by vehicle. The application filters
// are re-applied in-process with case-insensitive containment, because the
// SQL LIKE already matched the part but the page row carries all of its
// applications.
func agruparPorVeiculo(produtos []entity.Produto, f repository.SearchFilters) []GrupoBusca {
	type grupo struct {
		produtos []entity.Produto
		visto    map[uint]bool
	}
	grupos := make(map[string]*grupo)

	for _, produto := range produtos {
		for _, aplicacao := range produto.Aplicacoes {
			if f.Montadora != "" &&
				!strings.Contains(strings.ToLower(aplicacao.Montadora), strings.ToLower(f.Montadora)) {
				continue
			}
			if f.AplicacaoTermo != "" &&
				!strings.Contains(strings.ToLower(aplicacao.Veiculo), strings.ToLower(f.AplicacaoTermo)) {
				continue
			}
			chave := strings.TrimSpace(fmt.Sprintf("%s %s %s", aplicacao.Montadora, aplicacao.Veiculo, aplicacao.Ano))
			g, ok := grupos[chave]
			if !ok {
				g = &grupo{visto: make(map[uint]bool)}
				grupos[chave] = g
			}
			if !g.visto[produto.ID] {
				g.visto[produto.ID] = true
				g.produtos = append(g.produtos, produto)
			}
		}
	}

	chaves := make([]string, 0, len(grupos))
	for chave := range grupos {
		chaves = append(chaves, chave)
	}
	sort.Strings(chaves)

	resultado := make([]GrupoBusca, 0, len(chaves))
	for _, chave := range chaves {
		resultado = append(resultado, GrupoBusca{Chave: chave, Produtos: grupos[chave].produtos})
	}
	return resultado
}
