package repository

import (
	"context"
	"errors"

	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"gorm.io/gorm"
)

// AplicacaoRepository persists vehicle-compatibility records.
type AplicacaoRepository struct {
	db *gorm.DB
}

// NewAplicacaoRepository creates the application repository.
func NewAplicacaoRepository(db *gorm.DB) *AplicacaoRepository {
	return &AplicacaoRepository{db: db}
}

// FindByID loads one application.
func (r *AplicacaoRepository) FindByID(ctx context.Context, id uint) (*entity.Aplicacao, error) {
	var aplicacao entity.Aplicacao
	err := r.db.WithContext(ctx).First(&aplicacao, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &aplicacao, nil
}

// Delete removes one application record.
func (r *AplicacaoRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Aplicacao{}, id).Error
}

// DistinctMontadoras lists the non-empty manufacturers observed in stored
// applications.
func (r *AplicacaoRepository) DistinctMontadoras(ctx context.Context) ([]string, error) {
	var montadoras []string
	err := r.db.WithContext(ctx).
		Model(&entity.Aplicacao{}).
		Distinct("montadora").
		Where("montadora IS NOT NULL AND montadora <> ''").
		Pluck("montadora", &montadoras).Error
	return montadoras, err
}

// MontadoraVeiculo is one (manufacturer, vehicle) pair for the index page.
type MontadoraVeiculo struct {
	Montadora string `json:"montadora"`
	Veiculo   string `json:"veiculo"`
}

// MontadorasComVeiculos lists distinct manufacturer/vehicle pairs sorted by
// manufacturer then vehicle.
func (r *AplicacaoRepository) MontadorasComVeiculos(ctx context.Context) ([]MontadoraVeiculo, error) {
	var pares []MontadoraVeiculo
	err := r.db.WithContext(ctx).
		Model(&entity.Aplicacao{}).
		Distinct("montadora", "veiculo").
		Where("montadora IS NOT NULL AND montadora <> ''").
		Order("montadora, veiculo").
		Scan(&pares).Error
	return pares, err
}

// LastMontadoraForVeiculo returns the most recently recorded manufacturer
// for the vehicle, used by the edit form to pre-fill the field.
func (r *AplicacaoRepository) LastMontadoraForVeiculo(ctx context.Context, veiculo string) (string, error) {
	var aplicacao entity.Aplicacao
	err := r.db.WithContext(ctx).
		Where("lower(veiculo) = lower(?)", veiculo).
		Order("id DESC").
		First(&aplicacao).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return aplicacao.Montadora, nil
}
