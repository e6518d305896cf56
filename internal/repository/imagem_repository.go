package repository

import (
	"context"
	"errors"

	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"gorm.io/gorm"
)

// ImagemRepository persists part image records. The physical files live in
// the uploads directory and may be shared by filename.
type ImagemRepository struct {
	db *gorm.DB
}

// NewImagemRepository creates the image repository.
func NewImagemRepository(db *gorm.DB) *ImagemRepository {
	return &ImagemRepository{db: db}
}

// FindByID loads one image record.
func (r *ImagemRepository) FindByID(ctx context.Context, id uint) (*entity.ImagemProduto, error) {
	var imagem entity.ImagemProduto
	err := r.db.WithContext(ctx).First(&imagem, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &imagem, nil
}

// Delete removes one image record.
func (r *ImagemRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.ImagemProduto{}, id).Error
}

// CountByFilename counts records sharing the filename. The physical file
// is removed only when this reaches zero.
func (r *ImagemRepository) CountByFilename(ctx context.Context, filename string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.ImagemProduto{}).
		Where("filename = ?", filename).
		Count(&count).Error
	return count, err
}

// FilenamesInUseElsewhere returns which of the given filenames are also
// referenced by parts other than produtoID.
func (r *ImagemRepository) FilenamesInUseElsewhere(ctx context.Context, filenames []string, produtoID uint) (map[string]bool, error) {
	if len(filenames) == 0 {
		return map[string]bool{}, nil
	}
	var emUso []string
	err := r.db.WithContext(ctx).
		Model(&entity.ImagemProduto{}).
		Distinct("filename").
		Where("filename IN ?", filenames).
		Where("produto_id <> ?", produtoID).
		Pluck("filename", &emUso).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]bool, len(emUso))
	for _, f := range emUso {
		result[f] = true
	}
	return result, nil
}
