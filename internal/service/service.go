package service

import (
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/config"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services holds all services.
type Services struct {
	Auth      *AuthService
	Produto   *ProdutoService
	Similares *SimilaresService
	Datalist  *DatalistService
	Imagem    *ImagemService
	Export    *ExportService
	Import    *ImportService
}

// NewServices wires all services.
func NewServices(db *gorm.DB, repos *repository.Repositories, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	imagemSvc, err := NewImagemService(repos.Imagem, cfg.Storage.UploadsDir, logger)
	if err != nil {
		return nil, err
	}

	similaresSvc := NewSimilaresService(repos.Produto)

	return &Services{
		Auth:      NewAuthService(repos.User, cfg.Auth),
		Produto:   NewProdutoService(db, repos, similaresSvc, imagemSvc),
		Similares: similaresSvc,
		Datalist:  NewDatalistService(repos.Produto, repos.Aplicacao, nil),
		Imagem:    imagemSvc,
		Export:    NewExportService(repos.Produto),
		Import:    NewImportService(db, repos, nil, logger),
	}, nil
}
