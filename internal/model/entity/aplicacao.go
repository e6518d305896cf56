package entity

// Aplicacao is one vehicle-compatibility record of a part. Ano keeps the
// year range exactly as entered ("2010/2015", "2018/...", "2012"); it is
// parsed on demand when comparing ranges, never normalized at rest.
type Aplicacao struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProdutoID uint   `json:"produto_id" gorm:"not null;index"`
	Veiculo   string `json:"veiculo" gorm:"size:100;index"`
	Ano       string `json:"ano" gorm:"size:10"`
	Motor     string `json:"motor" gorm:"size:100"`
	ConfMtr   string `json:"conf_mtr" gorm:"size:100"`
	Montadora string `json:"montadora" gorm:"size:100;index"`
}

func (Aplicacao) TableName() string {
	return "aplicacoes"
}
