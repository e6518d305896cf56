package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gorm.io/gorm"
)

// AplicacaoParser converts one raw applications field into application
// records. The legacy pipe-delimited format is heuristic scraping of
// free text, so it lives behind this interface and can be swapped or
// tested apart from the import flow.
type AplicacaoParser interface {
	Parse(texto string) []entity.Aplicacao
}

// ImportResult summarizes one CSV import run.
type ImportResult struct {
	Total        int      `json:"total"`
	Criados      int      `json:"criados"`
	Atualizados  int      `json:"atualizados"`
	Ignorados    int      `json:"ignorados"`
	CodigosDupes []string `json:"codigos_duplicados,omitempty"`
}

// ImportService loads parts from the interchange CSV, creating or
// updating by code. Each row commits in its own transaction, so one bad
// row never poisons the rest of the file.
type ImportService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	parser AplicacaoParser
	logger *zap.Logger
}

// NewImportService creates the import service.
func NewImportService(db *gorm.DB, repos *repository.Repositories, parser AplicacaoParser, logger *zap.Logger) *ImportService {
	if parser == nil {
		parser = NewAplicacaoTextoParser()
	}
	return &ImportService{db: db, repos: repos, parser: parser, logger: logger}
}

// ImportCSV reads the whole file and processes it row by row. The file is
// decoded as UTF-8 (with optional BOM) and falls back to Latin-1, the
// encoding of legacy exports.
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	raw = decodeLegacy(raw)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	colunas := make(map[string]int, len(header))
	for i, nome := range header {
		colunas[strings.ToLower(strings.TrimSpace(nome))] = i
	}
	if _, ok := colunas["codigo"]; !ok {
		return nil, errors.New("csv is missing the required codigo column")
	}

	result := &ImportResult{}
	processados := make(map[string]bool)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		result.Total++

		campo := func(nome string) string {
			i, ok := colunas[nome]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		codigo := strings.ToUpper(campo("codigo"))
		if codigo == "" {
			result.Ignorados++
			continue
		}
		if processados[codigo] {
			result.Ignorados++
			result.CodigosDupes = append(result.CodigosDupes, codigo)
			continue
		}
		processados[codigo] = true

		criado, err := s.importRow(ctx, codigo, campo)
		if err != nil {
			s.logger.Warn("Import row failed",
				zap.String("codigo", codigo),
				zap.Error(err))
			result.Ignorados++
			continue
		}
		if criado {
			result.Criados++
		} else {
			result.Atualizados++
		}
	}

	return result, nil
}

// importRow creates or updates one part. Blank fields on update keep the
// stored value.
func (s *ImportService) importRow(ctx context.Context, codigo string, campo func(string) string) (criado bool, err error) {
	existente, err := s.repos.Produto.ExistsCodigo(ctx, codigo, 0)
	if err != nil {
		return false, fmt.Errorf("find produto: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var produto *entity.Produto
		if existente != nil {
			produto = existente
			aplicar := func(atual *string, valor string) {
				if valor != "" {
					*atual = strings.ToUpper(valor)
				}
			}
			aplicar(&produto.Nome, campo("nome"))
			aplicar(&produto.Grupo, campo("grupo"))
			aplicar(&produto.Fornecedor, campo("fornecedor"))
			aplicar(&produto.Conversoes, campo("conversoes"))
			aplicar(&produto.Medidas, campo("medidas"))
			aplicar(&produto.Observacoes, campo("observacoes"))
			if err := tx.Save(produto).Error; err != nil {
				return fmt.Errorf("update produto: %w", err)
			}
		} else {
			produto = &entity.Produto{
				Codigo:      codigo,
				Nome:        strings.ToUpper(campo("nome")),
				Grupo:       strings.ToUpper(campo("grupo")),
				Fornecedor:  strings.ToUpper(campo("fornecedor")),
				Conversoes:  strings.ToUpper(campo("conversoes")),
				Medidas:     strings.ToUpper(campo("medidas")),
				Observacoes: strings.ToUpper(campo("observacoes")),
			}
			if err := tx.Create(produto).Error; err != nil {
				return fmt.Errorf("create produto: %w", err)
			}
		}

		aplicacoes, ok := s.parseAplicacoes(campo)
		if !ok {
			return nil
		}
		// The file is authoritative for applications when it carries them.
		if err := tx.Where("produto_id = ?", produto.ID).Delete(&entity.Aplicacao{}).Error; err != nil {
			return fmt.Errorf("clear aplicacoes: %w", err)
		}
		for _, a := range aplicacoes {
			a.ID = 0
			a.ProdutoID = produto.ID
			if err := tx.Create(&a).Error; err != nil {
				return fmt.Errorf("create aplicacao: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return existente == nil, nil
}

// parseAplicacoes reads the applications payload: the aplicacoes_json
// column when present, otherwise the legacy pipe-delimited aplicacoes
// column through the heuristic parser. ok is false when the row carries
// neither, meaning stored applications stay untouched.
func (s *ImportService) parseAplicacoes(campo func(string) string) ([]entity.Aplicacao, bool) {
	if raw := campo("aplicacoes_json"); raw != "" {
		var parsed []aplicacaoJSON
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			aplicacoes := make([]entity.Aplicacao, 0, len(parsed))
			for _, a := range parsed {
				aplicacoes = append(aplicacoes, entity.Aplicacao{
					Veiculo:   a.Veiculo,
					Ano:       a.Ano,
					Motor:     a.Motor,
					ConfMtr:   a.ConfMtr,
					Montadora: a.Montadora,
				})
			}
			return aplicacoes, true
		}
	}
	if raw := campo("aplicacoes"); raw != "" {
		return s.parser.Parse(raw), true
	}
	return nil, false
}

func decodeLegacy(raw []byte) []byte {
	if utf8.Valid(raw) {
		return bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	}
	decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), raw)
	if err != nil {
		return raw
	}
	return decoded
}

// anoPattern matches the year-range shapes found in legacy free text:
// "2010/2015" and the open-ended "2018/...".
var anoPattern = regexp.MustCompile(`\d{4}/\s?\.{3}|\d{4}/\s?\d{4}`)

// AplicacaoTextoParser scrapes application records out of the legacy
// pipe-delimited field: each segment holds vehicle tokens optionally
// prefixed "MONTADORA-" plus zero or more year ranges, which are paired
// with the vehicles positionally.
type AplicacaoTextoParser struct{}

// NewAplicacaoTextoParser creates the legacy text parser.
func NewAplicacaoTextoParser() *AplicacaoTextoParser {
	return &AplicacaoTextoParser{}
}

// Parse implements AplicacaoParser. Best effort by design: unparseable
// segments yield no records rather than an error.
func (p *AplicacaoTextoParser) Parse(texto string) []entity.Aplicacao {
	var aplicacoes []entity.Aplicacao

	for _, segmento := range strings.Split(texto, "|") {
		segmento = strings.TrimSpace(segmento)
		if segmento == "" {
			continue
		}

		anos := anoPattern.FindAllString(segmento, -1)
		semAnos := segmento
		for _, ano := range anos {
			semAnos = strings.ReplaceAll(semAnos, ano, "")
		}

		veiculos := strings.Fields(semAnos)
		for i, veiculoCompleto := range veiculos {
			ano := ""
			if i < len(anos) {
				ano = anos[i]
			} else if len(anos) > 0 {
				ano = anos[0]
			}

			montadora := ""
			nome := veiculoCompleto
			if partes := strings.SplitN(veiculoCompleto, "-", 2); len(partes) == 2 {
				montadora = strings.ToUpper(strings.TrimSpace(partes[0]))
				nome = strings.TrimSpace(partes[1])
			}
			if nome == "" {
				continue
			}

			aplicacoes = append(aplicacoes, entity.Aplicacao{
				Veiculo:   nome,
				Ano:       strings.TrimSpace(ano),
				Montadora: montadora,
			})
		}
	}

	return aplicacoes
}
