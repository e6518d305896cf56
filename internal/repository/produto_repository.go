package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/search"
	"gorm.io/gorm"
)

// SearchFilters are the optional axes of the part search. Termo,
// CodigoProduto and Medidas are compared diacritic-insensitively through
// the normalization expression; Grupo, Montadora and AplicacaoTermo are
// only case-insensitive. The asymmetry reproduces the catalog's observed
// behavior and is pinned by tests; do not "fix" it silently.
type SearchFilters struct {
	Termo          string
	CodigoProduto  string
	Montadora      string
	AplicacaoTermo string
	Grupo          string
	Medidas        string
}

// Empty reports whether no filter axis is set. An empty search is valid
// and returns the whole catalog, paginated.
func (f SearchFilters) Empty() bool {
	return f.Termo == "" && f.CodigoProduto == "" && f.Montadora == "" &&
		f.AplicacaoTermo == "" && f.Grupo == "" && f.Medidas == ""
}

// ProdutoRepository persists parts.
type ProdutoRepository struct {
	db *gorm.DB
}

// NewProdutoRepository creates the part repository.
func NewProdutoRepository(db *gorm.DB) *ProdutoRepository {
	return &ProdutoRepository{db: db}
}

// FindByID loads a part with its applications and ordered images.
func (r *ProdutoRepository) FindByID(ctx context.Context, id uint) (*entity.Produto, error) {
	var produto entity.Produto
	err := r.db.WithContext(ctx).
		Preload("Aplicacoes").
		Preload("Imagens", func(db *gorm.DB) *gorm.DB {
			return db.Order("imagens_produto.ordem ASC")
		}).
		First(&produto, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &produto, nil
}

// FindByIDDetalhe loads a part for the detail view, including the linked
// similars with their own applications and images.
func (r *ProdutoRepository) FindByIDDetalhe(ctx context.Context, id uint) (*entity.Produto, error) {
	var produto entity.Produto
	err := r.db.WithContext(ctx).
		Preload("Aplicacoes").
		Preload("Imagens", func(db *gorm.DB) *gorm.DB {
			return db.Order("imagens_produto.ordem ASC")
		}).
		Preload("Similares.Aplicacoes").
		Preload("Similares.Imagens", func(db *gorm.DB) *gorm.DB {
			return db.Order("imagens_produto.ordem ASC")
		}).
		First(&produto, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &produto, nil
}

// ExistsCodigo reports whether another part already uses the code,
// case-insensitively. This pre-check is the primary duplicate detection;
// the unique index is only a backstop.
func (r *ProdutoRepository) ExistsCodigo(ctx context.Context, codigo string, excludeID uint) (*entity.Produto, error) {
	var produto entity.Produto
	q := r.db.WithContext(ctx).Where("upper(codigo) = upper(?)", codigo)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.First(&produto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &produto, nil
}

// Create inserts a part.
func (r *ProdutoRepository) Create(ctx context.Context, produto *entity.Produto) error {
	return r.db.WithContext(ctx).Create(produto).Error
}

// Update saves a part's scalar fields.
func (r *ProdutoRepository) Update(ctx context.Context, produto *entity.Produto) error {
	return r.db.WithContext(ctx).Save(produto).Error
}

// Search runs the composed part search: AND across axes, and within the
// free-text axis AND across words with each word matching any of six
// normalized fields. A LEFT JOIN keeps application-less parts reachable by
// name/code/supplier; Montadora/AplicacaoTermo without Termo switch to an
// inner join, excluding parts with zero applications. Results are distinct
// by part before pagination.
func (r *ProdutoRepository) Search(ctx context.Context, f SearchFilters, page, pageSize int, sortBy, sortDir string) ([]entity.Produto, int64, error) {
	q := r.db.WithContext(ctx).Model(&entity.Produto{})

	if f.Termo != "" {
		q = q.Joins("LEFT JOIN aplicacoes ON aplicacoes.produto_id = produtos.id")
		for _, palavra := range strings.Fields(f.Termo) {
			normalizada := search.Normalize(palavra)
			if normalizada == "" {
				continue
			}
			like := "%" + normalizada + "%"
			cond := fmt.Sprintf("%s LIKE ? OR %s LIKE ? OR %s LIKE ? OR %s LIKE ? OR %s LIKE ? OR %s LIKE ?",
				search.NormalizeExpr("produtos.nome"),
				search.NormalizeExpr("produtos.codigo"),
				search.NormalizeExpr("produtos.fornecedor"),
				search.NormalizeExpr("aplicacoes.veiculo"),
				search.NormalizeExpr("aplicacoes.motor"),
				search.NormalizeExpr("produtos.conversoes"))
			q = q.Where(cond, like, like, like, like, like, like)
		}
	}

	if f.CodigoProduto != "" {
		q = q.Where(search.NormalizeExpr("produtos.codigo")+" LIKE ?",
			"%"+search.Normalize(f.CodigoProduto)+"%")
	}

	if f.Grupo != "" {
		q = q.Where("lower(produtos.grupo) LIKE lower(?)", "%"+f.Grupo+"%")
	}

	if f.Medidas != "" {
		q = q.Where(search.NormalizeExpr("produtos.medidas")+" LIKE ?",
			"%"+search.Normalize(f.Medidas)+"%")
	}

	if f.Termo == "" && (f.Montadora != "" || f.AplicacaoTermo != "") {
		q = q.Joins("JOIN aplicacoes ON aplicacoes.produto_id = produtos.id")
	}

	if f.Montadora != "" {
		q = q.Where("lower(aplicacoes.montadora) LIKE lower(?)", "%"+f.Montadora+"%")
	}

	if f.AplicacaoTermo != "" {
		like := "%" + f.AplicacaoTermo + "%"
		q = q.Where("lower(aplicacoes.veiculo) LIKE lower(?) OR lower(aplicacoes.motor) LIKE lower(?)", like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Distinct("produtos.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var produtos []entity.Produto
	err := q.Session(&gorm.Session{}).
		Distinct("produtos.*").
		Order(orderClause(sortBy, sortDir)).
		Offset(offset).
		Limit(pageSize).
		Find(&produtos).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.preloadPage(ctx, produtos); err != nil {
		return nil, 0, err
	}

	return produtos, total, nil
}

// preloadPage loads applications and images for an already-fetched page,
// preserving its order. The joined search statement cannot carry preloads.
func (r *ProdutoRepository) preloadPage(ctx context.Context, produtos []entity.Produto) error {
	if len(produtos) == 0 {
		return nil
	}
	ids := make([]uint, len(produtos))
	for i, p := range produtos {
		ids[i] = p.ID
	}

	var loaded []entity.Produto
	err := r.db.WithContext(ctx).
		Preload("Aplicacoes").
		Preload("Imagens", func(db *gorm.DB) *gorm.DB {
			return db.Order("imagens_produto.ordem ASC")
		}).
		Where("id IN ?", ids).
		Find(&loaded).Error
	if err != nil {
		return err
	}

	byID := make(map[uint]entity.Produto, len(loaded))
	for _, p := range loaded {
		byID[p.ID] = p
	}
	for i := range produtos {
		if p, ok := byID[produtos[i].ID]; ok {
			produtos[i] = p
		}
	}
	return nil
}

func orderClause(sortBy, sortDir string) string {
	col := "codigo"
	if sortBy == "nome" {
		col = "nome"
	}
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	return fmt.Sprintf("produtos.%s %s", col, dir)
}

// SearchAll returns every part matching the filters, with applications
// loaded, in code order. Used by the CSV/XLSX export.
func (r *ProdutoRepository) SearchAll(ctx context.Context, f SearchFilters) ([]entity.Produto, error) {
	const exportPageSize = 500
	var all []entity.Produto
	for page := 1; ; page++ {
		produtos, total, err := r.Search(ctx, f, page, exportPageSize, "codigo", "asc")
		if err != nil {
			return nil, err
		}
		all = append(all, produtos...)
		if int64(len(all)) >= total || len(produtos) == 0 {
			break
		}
	}
	return all, nil
}

// LinkedIDs returns the ids related to the part through the similarity
// relation, in either direction, plus the part itself. The relation is
// kept symmetric, so the union is defensive rather than required.
func (r *ProdutoRepository) LinkedIDs(ctx context.Context, produtoID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Raw(`
		SELECT similar_id FROM produto_similares WHERE produto_id = ?
		UNION
		SELECT produto_id FROM produto_similares WHERE similar_id = ?`,
		produtoID, produtoID).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return append(ids, produtoID), nil
}

// FindByCodigos returns parts whose code is in the given set, excluding ids.
func (r *ProdutoRepository) FindByCodigos(ctx context.Context, codigos []string, excludeIDs []uint) ([]entity.Produto, error) {
	if len(codigos) == 0 {
		return nil, nil
	}
	var produtos []entity.Produto
	err := r.db.WithContext(ctx).
		Preload("Aplicacoes").
		Preload("Imagens").
		Where("codigo IN ?", codigos).
		Where("id NOT IN ?", excludeIDs).
		Find(&produtos).Error
	return produtos, err
}

// FindByConversaoContaining returns parts whose conversion list mentions
// the code, excluding ids.
func (r *ProdutoRepository) FindByConversaoContaining(ctx context.Context, codigo string, excludeIDs []uint) ([]entity.Produto, error) {
	var produtos []entity.Produto
	err := r.db.WithContext(ctx).
		Preload("Aplicacoes").
		Preload("Imagens").
		Where("lower(conversoes) LIKE lower(?)", "%"+codigo+"%").
		Where("id NOT IN ?", excludeIDs).
		Find(&produtos).Error
	return produtos, err
}

// FindCandidatosGrupoVeiculo returns parts of the same group having at
// least one application for the exact vehicle, excluding ids.
func (r *ProdutoRepository) FindCandidatosGrupoVeiculo(ctx context.Context, grupo, veiculo string, excludeIDs []uint) ([]entity.Produto, error) {
	var produtos []entity.Produto
	err := r.db.WithContext(ctx).
		Preload("Aplicacoes").
		Preload("Imagens").
		Where("grupo = ?", grupo).
		Where("id NOT IN ?", excludeIDs).
		Where("EXISTS (SELECT 1 FROM aplicacoes WHERE aplicacoes.produto_id = produtos.id AND aplicacoes.veiculo = ?)", veiculo).
		Find(&produtos).Error
	return produtos, err
}

// FindByIDs loads parts with associations by id.
func (r *ProdutoRepository) FindByIDs(ctx context.Context, ids []uint) ([]*entity.Produto, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var produtos []*entity.Produto
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&produtos).Error
	return produtos, err
}

// Autocomplete matches parts by code or name fragment for the similars
// picker, excluding the part being edited.
func (r *ProdutoRepository) Autocomplete(ctx context.Context, termo string, excludeID uint, limit int) ([]entity.Produto, error) {
	var produtos []entity.Produto
	q := r.db.WithContext(ctx).
		Where("lower(codigo) LIKE lower(?) OR lower(nome) LIKE lower(?)",
			"%"+termo+"%", "%"+termo+"%")
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Limit(limit).Find(&produtos).Error
	return produtos, err
}

// DistinctGrupos lists the non-empty groups in use, sorted.
func (r *ProdutoRepository) DistinctGrupos(ctx context.Context) ([]string, error) {
	var grupos []string
	err := r.db.WithContext(ctx).
		Model(&entity.Produto{}).
		Distinct("grupo").
		Where("grupo IS NOT NULL AND grupo <> ''").
		Order("grupo").
		Pluck("grupo", &grupos).Error
	return grupos, err
}

// DistinctFornecedores lists the non-empty suppliers in use, sorted.
func (r *ProdutoRepository) DistinctFornecedores(ctx context.Context) ([]string, error) {
	var fornecedores []string
	err := r.db.WithContext(ctx).
		Model(&entity.Produto{}).
		Distinct("fornecedor").
		Where("fornecedor IS NOT NULL AND fornecedor <> ''").
		Order("fornecedor").
		Pluck("fornecedor", &fornecedores).Error
	return fornecedores, err
}
