package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
)

// MontadorasPredefinidas are the common vehicle makes of the Brazilian
// market. The manufacturer datalist always contains them, even on an empty
// database, so well-known entries never disappear from autocompletion.
var MontadorasPredefinidas = []string{
	"Audi",
	"BMW",
	"BYD",
	"Caoa Chery",
	"Chevrolet",
	"CITROËN",
	"Fiat",
	"Ford",
	"GWM",
	"Honda",
	"Hyundai",
	"Jeep",
	"Kia",
	"Land Rover",
	"Mercedes-Benz",
	"Mitsubishi",
	"Nissan",
	"Peugeot",
	"Ram",
	"Renault",
	"Toyota",
	"Volkswagen",
	"Volvo",
}

// DatalistTTL bounds the staleness of the form datalists. Writes do not
// invalidate the cache, so a freshly added group or supplier may take up
// to this long to appear in autocompletion.
const DatalistTTL = 300 * time.Second

// Datalists feeds the form autocompletion fields.
type Datalists struct {
	Grupos       []string `json:"grupos"`
	Fornecedores []string `json:"fornecedores"`
	Montadoras   []string `json:"montadoras"`
}

// DatalistService caches the distinct group/supplier/manufacturer values
// in a single time-boxed slot, avoiding repeated full-table scans on form
// rendering. The clock is injected so tests can advance time.
type DatalistService struct {
	produtoRepo   *repository.ProdutoRepository
	aplicacaoRepo *repository.AplicacaoRepository
	ttl           time.Duration
	now           func() time.Time

	mu       sync.Mutex
	cached   *Datalists
	cachedAt time.Time
}

// NewDatalistService creates the datalist cache. A nil clock uses
// time.Now.
func NewDatalistService(produtoRepo *repository.ProdutoRepository, aplicacaoRepo *repository.AplicacaoRepository, now func() time.Time) *DatalistService {
	if now == nil {
		now = time.Now
	}
	return &DatalistService{
		produtoRepo:   produtoRepo,
		aplicacaoRepo: aplicacaoRepo,
		ttl:           DatalistTTL,
		now:           now,
	}
}

// Get returns the cached datalists, recomputing them when the slot is
// older than the TTL. The lock spans the whole check-recompute-store
// sequence; serializing concurrent misses is acceptable because the
// recomputation is three cheap aggregate queries.
func (s *DatalistService) Get(ctx context.Context) (*Datalists, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.now().Sub(s.cachedAt) < s.ttl {
		return s.cached, nil
	}

	data, err := s.query(ctx)
	if err != nil {
		return nil, err
	}
	s.cached = data
	s.cachedAt = s.now()
	return data, nil
}

func (s *DatalistService) query(ctx context.Context) (*Datalists, error) {
	grupos, err := s.produtoRepo.DistinctGrupos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list grupos: %w", err)
	}
	fornecedores, err := s.produtoRepo.DistinctFornecedores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fornecedores: %w", err)
	}
	montadorasDB, err := s.aplicacaoRepo.DistinctMontadoras(ctx)
	if err != nil {
		return nil, fmt.Errorf("list montadoras: %w", err)
	}

	visto := make(map[string]bool)
	montadoras := make([]string, 0, len(montadorasDB)+len(MontadorasPredefinidas))
	for _, m := range append(montadorasDB, MontadorasPredefinidas...) {
		if !visto[m] {
			visto[m] = true
			montadoras = append(montadoras, m)
		}
	}
	sort.Strings(montadoras)

	return &Datalists{
		Grupos:       grupos,
		Fornecedores: fornecedores,
		Montadoras:   montadoras,
	}, nil
}
