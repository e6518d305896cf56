package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Repositories holds all repositories.
type Repositories struct {
	Produto   *ProdutoRepository
	Aplicacao *AplicacaoRepository
	Imagem    *ImagemRepository
	User      *UserRepository
}

// NewRepositories creates all repositories.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Produto:   NewProdutoRepository(db),
		Aplicacao: NewAplicacaoRepository(db),
		Imagem:    NewImagemRepository(db),
		User:      NewUserRepository(db),
	}
}
