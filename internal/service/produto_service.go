package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"gorm.io/gorm"
)

// DuplicateCodeError reports a code already used by another part. It is
// detected by an explicit pre-check query; the unique index is a backstop.
type DuplicateCodeError struct {
	Codigo string
	Nome   string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("codigo %q already in use by %q", e.Codigo, e.Nome)
}

// AplicacaoInput is one application row of the part form. A zero ID means
// a new record; existing records missing from the form are deleted.
type AplicacaoInput struct {
	ID        uint   `json:"id"`
	Veiculo   string `json:"veiculo"`
	Ano       string `json:"ano"`
	Motor     string `json:"motor"`
	ConfMtr   string `json:"conf_mtr"`
	Montadora string `json:"montadora"`
}

// ProdutoRequest is the create/update payload of a part.
type ProdutoRequest struct {
	Nome         string           `json:"nome" binding:"required"`
	Codigo       string           `json:"codigo" binding:"required"`
	Grupo        string           `json:"grupo"`
	Fornecedor   string           `json:"fornecedor"`
	Conversoes   string           `json:"conversoes"`
	Medidas      string           `json:"medidas"`
	Observacoes  string           `json:"observacoes"`
	Aplicacoes   []AplicacaoInput `json:"aplicacoes"`
	SimilaresIDs []uint           `json:"similares_ids"`
	OrdemImagens []uint           `json:"ordem_imagens"`
}

// ProdutoService implements the part lifecycle: create, edit, clone,
// delete, detail view and search.
type ProdutoService struct {
	db        *gorm.DB
	repos     *repository.Repositories
	similares *SimilaresService
	imagens   *ImagemService
}

// NewProdutoService creates the part service.
func NewProdutoService(db *gorm.DB, repos *repository.Repositories, similares *SimilaresService, imagens *ImagemService) *ProdutoService {
	return &ProdutoService{db: db, repos: repos, similares: similares, imagens: imagens}
}

// upperField trims and uppercases a form field; catalog text is stored
// uppercased at the edges.
func upperField(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Create inserts a part with its applications and similar links in one
// transaction.
func (s *ProdutoService) Create(ctx context.Context, req *ProdutoRequest) (*entity.Produto, error) {
	codigo := upperField(req.Codigo)
	nome := upperField(req.Nome)
	if codigo == "" || nome == "" {
		return nil, fmt.Errorf("nome and codigo are required")
	}

	if existente, err := s.repos.Produto.ExistsCodigo(ctx, codigo, 0); err != nil {
		return nil, fmt.Errorf("check codigo: %w", err)
	} else if existente != nil {
		return nil, &DuplicateCodeError{Codigo: codigo, Nome: existente.Nome}
	}

	produto := &entity.Produto{
		Nome:        nome,
		Codigo:      codigo,
		Grupo:       upperField(req.Grupo),
		Fornecedor:  upperField(req.Fornecedor),
		Conversoes:  upperField(req.Conversoes),
		Medidas:     upperField(req.Medidas),
		Observacoes: upperField(req.Observacoes),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(produto).Error; err != nil {
			return fmt.Errorf("create produto: %w", err)
		}
		if err := createAplicacoes(tx, produto.ID, req.Aplicacoes); err != nil {
			return err
		}
		return s.similares.AtualizarSimetricamente(tx, produto.ID, req.SimilaresIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.repos.Produto.FindByID(ctx, produto.ID)
}

// Update edits a part: scalar fields, application reconciliation keyed by
// id, similar links and image ordering, all in one transaction. A failure
// anywhere rolls the whole edit back, so the symmetric relation is never
// left half-updated.
func (s *ProdutoService) Update(ctx context.Context, id uint, req *ProdutoRequest) (*entity.Produto, error) {
	produto, err := s.repos.Produto.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	codigo := upperField(req.Codigo)
	nome := upperField(req.Nome)
	if codigo == "" || nome == "" {
		return nil, fmt.Errorf("nome and codigo are required")
	}

	if existente, err := s.repos.Produto.ExistsCodigo(ctx, codigo, id); err != nil {
		return nil, fmt.Errorf("check codigo: %w", err)
	} else if existente != nil {
		return nil, &DuplicateCodeError{Codigo: codigo, Nome: existente.Nome}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"nome":        nome,
			"codigo":      codigo,
			"grupo":       upperField(req.Grupo),
			"fornecedor":  upperField(req.Fornecedor),
			"conversoes":  upperField(req.Conversoes),
			"medidas":     upperField(req.Medidas),
			"observacoes": upperField(req.Observacoes),
		}
		if err := tx.Model(&entity.Produto{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("update produto: %w", err)
		}

		if err := reconcileAplicacoes(tx, produto, req.Aplicacoes); err != nil {
			return err
		}

		if err := s.similares.AtualizarSimetricamente(tx, id, req.SimilaresIDs); err != nil {
			return err
		}

		// Rewrite the image order as sent by the form; images not listed
		// keep their slot after the listed ones.
		for i, imagemID := range req.OrdemImagens {
			err := tx.Model(&entity.ImagemProduto{}).
				Where("id = ? AND produto_id = ?", imagemID, id).
				Update("ordem", i).Error
			if err != nil {
				return fmt.Errorf("reorder imagem %d: %w", imagemID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repos.Produto.FindByID(ctx, id)
}

func createAplicacoes(tx *gorm.DB, produtoID uint, inputs []AplicacaoInput) error {
	for _, in := range inputs {
		if strings.TrimSpace(in.Veiculo) == "" {
			continue
		}
		aplicacao := entity.Aplicacao{
			ProdutoID: produtoID,
			Veiculo:   upperField(in.Veiculo),
			Ano:       strings.TrimSpace(in.Ano),
			Motor:     upperField(in.Motor),
			ConfMtr:   upperField(in.ConfMtr),
			Montadora: upperField(in.Montadora),
		}
		if err := tx.Create(&aplicacao).Error; err != nil {
			return fmt.Errorf("create aplicacao: %w", err)
		}
	}
	return nil
}

// reconcileAplicacoes applies the form rows against the stored ones:
// rows with a known id are updated, rows without are created, stored rows
// absent from the form are deleted.
func reconcileAplicacoes(tx *gorm.DB, produto *entity.Produto, inputs []AplicacaoInput) error {
	existentes := make(map[uint]bool, len(produto.Aplicacoes))
	for _, a := range produto.Aplicacoes {
		existentes[a.ID] = true
	}

	noForm := make(map[uint]bool, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in.Veiculo) == "" {
			continue
		}
		if in.ID != 0 && existentes[in.ID] {
			noForm[in.ID] = true
			updates := map[string]interface{}{
				"veiculo":   upperField(in.Veiculo),
				"ano":       strings.TrimSpace(in.Ano),
				"motor":     upperField(in.Motor),
				"conf_mtr":  upperField(in.ConfMtr),
				"montadora": upperField(in.Montadora),
			}
			err := tx.Model(&entity.Aplicacao{}).
				Where("id = ? AND produto_id = ?", in.ID, produto.ID).
				Updates(updates).Error
			if err != nil {
				return fmt.Errorf("update aplicacao %d: %w", in.ID, err)
			}
		} else {
			if err := createAplicacoes(tx, produto.ID, []AplicacaoInput{in}); err != nil {
				return err
			}
		}
	}

	for id := range existentes {
		if !noForm[id] {
			if err := tx.Delete(&entity.Aplicacao{}, id).Error; err != nil {
				return fmt.Errorf("delete aplicacao %d: %w", id, err)
			}
		}
	}
	return nil
}

// AddImagens appends image records to a part, continuing its order
// sequence. Files must already exist in the uploads directory.
func (s *ProdutoService) AddImagens(ctx context.Context, produtoID uint, filenames []string) error {
	if len(filenames) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var proxima int
		row := tx.Model(&entity.ImagemProduto{}).
			Where("produto_id = ?", produtoID).
			Select("COALESCE(MAX(ordem), -1) + 1")
		if err := row.Scan(&proxima).Error; err != nil {
			return fmt.Errorf("next imagem ordem: %w", err)
		}
		for i, filename := range filenames {
			imagem := entity.ImagemProduto{
				ProdutoID: produtoID,
				Filename:  filename,
				Ordem:     proxima + i,
			}
			if err := tx.Create(&imagem).Error; err != nil {
				return fmt.Errorf("create imagem: %w", err)
			}
		}
		return nil
	})
}

// Clone duplicates a part under a time-suffixed code, copying its
// applications, image records and similar links. The operator is expected
// to review the generated code afterwards.
func (s *ProdutoService) Clone(ctx context.Context, id uint) (*entity.Produto, error) {
	original, err := s.repos.Produto.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	similaresIDs, err := s.forwardSimilarIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	clone := &entity.Produto{
		Nome:        original.Nome,
		Codigo:      fmt.Sprintf("%s-CLONE-%s", original.Codigo, time.Now().Format("150405")),
		Grupo:       original.Grupo,
		Fornecedor:  original.Fornecedor,
		Conversoes:  original.Conversoes,
		Medidas:     original.Medidas,
		Observacoes: original.Observacoes,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(clone).Error; err != nil {
			return fmt.Errorf("create clone: %w", err)
		}
		for _, a := range original.Aplicacoes {
			aplicacao := entity.Aplicacao{
				ProdutoID: clone.ID,
				Veiculo:   a.Veiculo,
				Ano:       a.Ano,
				Motor:     a.Motor,
				ConfMtr:   a.ConfMtr,
				Montadora: a.Montadora,
			}
			if err := tx.Create(&aplicacao).Error; err != nil {
				return fmt.Errorf("clone aplicacao: %w", err)
			}
		}
		for _, img := range original.Imagens {
			imagem := entity.ImagemProduto{
				ProdutoID: clone.ID,
				Filename:  img.Filename,
				Ordem:     img.Ordem,
			}
			if err := tx.Create(&imagem).Error; err != nil {
				return fmt.Errorf("clone imagem: %w", err)
			}
		}
		return s.similares.AtualizarSimetricamente(tx, clone.ID, similaresIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.repos.Produto.FindByID(ctx, clone.ID)
}

func (s *ProdutoService) forwardSimilarIDs(ctx context.Context, produtoID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Raw("SELECT similar_id FROM produto_similares WHERE produto_id = ?", produtoID).
		Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("load similar ids: %w", err)
	}
	return ids, nil
}

// Delete removes a part with its applications, images and similarity
// edges in both directions. Physical image files are removed afterwards,
// and only when no other part references the same filename.
func (s *ProdutoService) Delete(ctx context.Context, id uint) error {
	produto, err := s.repos.Produto.FindByID(ctx, id)
	if err != nil {
		return err
	}

	filenames := make([]string, 0, len(produto.Imagens))
	for _, img := range produto.Imagens {
		filenames = append(filenames, img.Filename)
	}
	emUso, err := s.repos.Imagem.FilenamesInUseElsewhere(ctx, filenames, id)
	if err != nil {
		return fmt.Errorf("check shared filenames: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM produto_similares WHERE produto_id = ? OR similar_id = ?", id, id).Error; err != nil {
			return fmt.Errorf("unlink similars: %w", err)
		}
		if err := tx.Where("produto_id = ?", id).Delete(&entity.Aplicacao{}).Error; err != nil {
			return fmt.Errorf("delete aplicacoes: %w", err)
		}
		if err := tx.Where("produto_id = ?", id).Delete(&entity.ImagemProduto{}).Error; err != nil {
			return fmt.Errorf("delete imagens: %w", err)
		}
		if err := tx.Delete(&entity.Produto{}, id).Error; err != nil {
			return fmt.Errorf("delete produto: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, filename := range filenames {
		if !emUso[filename] {
			s.imagens.RemoveFile(filename)
		}
	}
	return nil
}

// GrupoMontadora groups a part's applications under one manufacturer for
// the detail view.
type GrupoMontadora struct {
	Montadora  string             `json:"montadora"`
	Aplicacoes []entity.Aplicacao `json:"aplicacoes"`
}

// DetalheResult is the detail view payload.
type DetalheResult struct {
	Produto   *entity.Produto  `json:"produto"`
	Agrupadas []GrupoMontadora `json:"aplicacoes_agrupadas"`
	Sugestoes []entity.Produto `json:"sugestoes_similares"`
}

// Detalhe loads a part with everything the detail view needs: linked
// similars, applications grouped by manufacturer and link suggestions.
func (s *ProdutoService) Detalhe(ctx context.Context, id uint) (*DetalheResult, error) {
	produto, err := s.repos.Produto.FindByIDDetalhe(ctx, id)
	if err != nil {
		return nil, err
	}

	sugestoes, err := s.similares.Sugerir(ctx, produto)
	if err != nil {
		return nil, fmt.Errorf("suggest similars: %w", err)
	}

	return &DetalheResult{
		Produto:   produto,
		Agrupadas: agruparPorMontadora(produto.Aplicacoes),
		Sugestoes: sugestoes,
	}, nil
}

func agruparPorMontadora(aplicacoes []entity.Aplicacao) []GrupoMontadora {
	ordenadas := make([]entity.Aplicacao, len(aplicacoes))
	copy(ordenadas, aplicacoes)
	sort.SliceStable(ordenadas, func(i, j int) bool {
		mi, mj := ordenadas[i].Montadora, ordenadas[j].Montadora
		// Applications without a manufacturer sort last.
		if mi == "" {
			mi = "ZZZ"
		}
		if mj == "" {
			mj = "ZZZ"
		}
		if mi != mj {
			return mi < mj
		}
		return ordenadas[i].Veiculo < ordenadas[j].Veiculo
	})

	var grupos []GrupoMontadora
	indice := make(map[string]int)
	for _, a := range ordenadas {
		chave := a.Montadora
		if chave == "" {
			chave = "Sem Montadora"
		}
		i, ok := indice[chave]
		if !ok {
			i = len(grupos)
			indice[chave] = i
			grupos = append(grupos, GrupoMontadora{Montadora: chave})
		}
		grupos[i].Aplicacoes = append(grupos[i].Aplicacoes, a)
	}
	return grupos
}

// Get loads a part with its applications and images.
func (s *ProdutoService) Get(ctx context.Context, id uint) (*entity.Produto, error) {
	return s.repos.Produto.FindByID(ctx, id)
}

// Autocomplete returns parts matching the term on code or name, for the
// similar-part picker. The part being edited is excluded.
func (s *ProdutoService) Autocomplete(ctx context.Context, termo string, excludeID uint) ([]entity.Produto, error) {
	return s.repos.Produto.Autocomplete(ctx, termo, excludeID, 10)
}

// DeleteAplicacao removes a single application row from its part.
func (s *ProdutoService) DeleteAplicacao(ctx context.Context, id uint) error {
	if _, err := s.repos.Aplicacao.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repos.Aplicacao.Delete(ctx, id)
}

// MontadorasComVeiculos lists the distinct manufacturer/vehicle pairs known
// to the catalog, feeding the application form datalists.
func (s *ProdutoService) MontadorasComVeiculos(ctx context.Context) ([]repository.MontadoraVeiculo, error) {
	return s.repos.Aplicacao.MontadorasComVeiculos(ctx)
}

// MontadoraPorVeiculo returns the manufacturer most recently recorded for a
// vehicle, or empty when the vehicle is unknown.
func (s *ProdutoService) MontadoraPorVeiculo(ctx context.Context, veiculo string) (string, error) {
	montadora, err := s.repos.Aplicacao.LastMontadoraForVeiculo(ctx, veiculo)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	return montadora, err
}

// CheckCodigo reports whether a code is already taken, optionally ignoring
// the part being edited.
func (s *ProdutoService) CheckCodigo(ctx context.Context, codigo string, excludeID uint) (bool, string, error) {
	existente, err := s.repos.Produto.ExistsCodigo(ctx, codigo, excludeID)
	if err != nil {
		return false, "", err
	}
	if existente == nil {
		return false, "", nil
	}
	return true, existente.Nome, nil
}
