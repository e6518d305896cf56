package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/search"
	"gorm.io/gorm"
)

// SimilaresService maintains the symmetric "similar parts" relation and
// computes link suggestions for the detail view.
type SimilaresService struct {
	produtoRepo *repository.ProdutoRepository
}

// NewSimilaresService creates the similars service.
func NewSimilaresService(produtoRepo *repository.ProdutoRepository) *SimilaresService {
	return &SimilaresService{produtoRepo: produtoRepo}
}

// AtualizarSimetricamente replaces a part's similar set and fixes the
// back-edges so that, for all parts P and Q, P lists Q iff Q lists P.
// Removed edges are de-linked on the other side; kept or added edges get
// their back-edge ensured without ever duplicating rows. Runs inside the
// caller's transaction so a failure leaves the relation untouched.
func (s *SimilaresService) AtualizarSimetricamente(tx *gorm.DB, produtoID uint, novosIDs []uint) error {
	novos := make(map[uint]bool, len(novosIDs))
	for _, id := range novosIDs {
		if id != produtoID {
			novos[id] = true
		}
	}

	var antigos []uint
	if err := tx.Raw("SELECT similar_id FROM produto_similares WHERE produto_id = ?", produtoID).
		Scan(&antigos).Error; err != nil {
		return fmt.Errorf("load current similars: %w", err)
	}

	// Forward edges: replace wholesale.
	if err := tx.Exec("DELETE FROM produto_similares WHERE produto_id = ?", produtoID).Error; err != nil {
		return fmt.Errorf("clear similars: %w", err)
	}
	for id := range novos {
		if err := tx.Exec("INSERT INTO produto_similares (produto_id, similar_id) VALUES (?, ?)",
			produtoID, id).Error; err != nil {
			return fmt.Errorf("link similar %d: %w", id, err)
		}
	}

	// Back-edges of removed links.
	for _, id := range antigos {
		if novos[id] {
			continue
		}
		if err := tx.Exec("DELETE FROM produto_similares WHERE produto_id = ? AND similar_id = ?",
			id, produtoID).Error; err != nil {
			return fmt.Errorf("unlink back-edge %d: %w", id, err)
		}
	}

	// Back-edges of current links, added only when missing.
	for id := range novos {
		err := tx.Exec(`INSERT INTO produto_similares (produto_id, similar_id)
			SELECT ?, ? WHERE NOT EXISTS
			(SELECT 1 FROM produto_similares WHERE produto_id = ? AND similar_id = ?)`,
			id, produtoID, id, produtoID).Error
		if err != nil {
			return fmt.Errorf("link back-edge %d: %w", id, err)
		}
	}

	return nil
}

// Sugerir proposes candidate similar parts for the detail view. Three
// sources are unioned: parts whose code appears in this part's conversion
// list, parts whose conversion list mentions this part's code, and parts
// of the same group sharing an application vehicle with overlapping year
// ranges. The part itself and already-linked parts (either direction) are
// always excluded. Read-only and advisory; linking requires confirmation.
func (s *SimilaresService) Sugerir(ctx context.Context, produto *entity.Produto) ([]entity.Produto, error) {
	excluidos, err := s.produtoRepo.LinkedIDs(ctx, produto.ID)
	if err != nil {
		return nil, fmt.Errorf("load linked ids: %w", err)
	}

	var sugestoes []entity.Produto
	visto := make(map[uint]bool)
	adicionar := func(produtos []entity.Produto) {
		for _, p := range produtos {
			if !visto[p.ID] {
				visto[p.ID] = true
				sugestoes = append(sugestoes, p)
			}
		}
	}

	// 1. Parts named in this part's conversion-code list.
	var codigos []string
	for _, c := range strings.Split(produto.Conversoes, ",") {
		if c = strings.TrimSpace(c); c != "" {
			codigos = append(codigos, c)
		}
	}
	if len(codigos) > 0 {
		porConversao, err := s.produtoRepo.FindByCodigos(ctx, codigos, excluidos)
		if err != nil {
			return nil, fmt.Errorf("suggest by conversion: %w", err)
		}
		adicionar(porConversao)
	}

	// 2. Parts whose conversion list mentions this part's code.
	porCodigo, err := s.produtoRepo.FindByConversaoContaining(ctx, produto.Codigo, excluidos)
	if err != nil {
		return nil, fmt.Errorf("suggest by reverse conversion: %w", err)
	}
	adicionar(porCodigo)

	// 3. Same group, same application vehicle, overlapping year ranges.
	if produto.Grupo != "" && len(produto.Aplicacoes) > 0 {
		for _, principal := range produto.Aplicacoes {
			if principal.Veiculo == "" {
				continue
			}
			rangePrincipal, ok := search.ParseYearRange(principal.Ano)
			if !ok {
				continue
			}

			ignorar := make([]uint, 0, len(excluidos)+len(visto))
			ignorar = append(ignorar, excluidos...)
			for id := range visto {
				ignorar = append(ignorar, id)
			}

			candidatos, err := s.produtoRepo.FindCandidatosGrupoVeiculo(ctx, produto.Grupo, principal.Veiculo, ignorar)
			if err != nil {
				return nil, fmt.Errorf("suggest by group/vehicle: %w", err)
			}

			for _, candidato := range candidatos {
				for _, aplicacao := range candidato.Aplicacoes {
					if aplicacao.Veiculo != principal.Veiculo {
						continue
					}
					rangeCandidato, ok := search.ParseYearRange(aplicacao.Ano)
					if ok && rangePrincipal.Overlaps(rangeCandidato) {
						adicionar([]entity.Produto{candidato})
						break
					}
				}
			}
		}
	}

	return sugestoes, nil
}
