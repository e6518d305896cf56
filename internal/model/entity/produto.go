package entity

import (
	"time"
)

// Produto is a catalog part, identified by its unique code.
type Produto struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Codigo      string    `json:"codigo" gorm:"size:50;not null;uniqueIndex"`
	Nome        string    `json:"nome" gorm:"size:100;not null"`
	Grupo       string    `json:"grupo" gorm:"size:50;index"`
	Fornecedor  string    `json:"fornecedor" gorm:"size:100;index"`
	Conversoes  string    `json:"conversoes" gorm:"type:text"`
	Medidas     string    `json:"medidas" gorm:"size:255"`
	Observacoes string    `json:"observacoes" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Aplicacoes []Aplicacao     `json:"aplicacoes,omitempty" gorm:"foreignKey:ProdutoID;constraint:OnDelete:CASCADE"`
	Imagens    []ImagemProduto `json:"imagens,omitempty" gorm:"foreignKey:ProdutoID;constraint:OnDelete:CASCADE"`

	// Similares is the symmetric "interchangeable parts" relation. Rows in
	// produto_similares are directional; the service layer keeps them
	// pairwise-consistent so A->B always coexists with B->A.
	Similares []*Produto `json:"similares,omitempty" gorm:"many2many:produto_similares;joinForeignKey:ProdutoID;joinReferences:SimilarID"`
}

func (Produto) TableName() string {
	return "produtos"
}

// ImagemProduto is one entry of a part's ordered image list. The underlying
// file may be shared by filename across parts, so the physical file is only
// removed when no other row references the same filename.
type ImagemProduto struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProdutoID uint   `json:"produto_id" gorm:"not null;index"`
	Filename  string `json:"filename" gorm:"size:100;not null;index"`
	Ordem     int    `json:"ordem" gorm:"not null;default:0"`
}

func (ImagemProduto) TableName() string {
	return "imagens_produto"
}
