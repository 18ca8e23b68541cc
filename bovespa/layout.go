package bovespa

import "fmt"

// Field is a named column of a fixed-width register. From and To are
// 1-based, inclusive character positions.
type Field struct {
	Name string
	From int
	To   int
}

// Layout is the ordered field table of one register kind of one dialect.
type Layout []Field

// Register holds the sanitized text of every field of one register.
type Register map[string]string

// Field names, as used by the exchange layout documents.
const (
	NomeArquivo    = "nome_arquivo"
	CodigoOrigem   = "codigo_origem"
	CodigoDestino  = "codigo_destino"
	DataGeracao    = "data_geracao"
	HoraGeracao    = "hora_geracao"
	TotalRegistros = "total_registros"

	AnoPregao = "ano_pregao"
	MesPregao = "mes_pregao"
	DiaPregao = "dia_pregao"
	CodBDI    = "cod_bdi"
	CodNeg    = "cod_neg"
	TpMerc    = "tp_merc"
	NomRes    = "nom_res"
	Especi    = "especi"
	ModRef    = "mod_ref"
	PreAbe    = "pre_abe"
	PreMax    = "pre_max"
	PreMin    = "pre_min"
	PreMed    = "pre_med"
	PreUlt    = "pre_ult"
	TotNeg    = "tot_neg"
	QuaTot    = "qua_tot"
	VolTot    = "vol_tot"
	FatCot    = "fat_cot"
	CodISI    = "cod_isi"
)

// Layouts of the historical quotes file (COTAHIST, "SeriesHistoricas_Layout").
var (
	histHeaderLayout = Layout{
		{NomeArquivo, 3, 15},
		{CodigoOrigem, 16, 23},
		{DataGeracao, 24, 31},
	}

	histQuoteLayout = Layout{
		{AnoPregao, 3, 6},
		{MesPregao, 7, 8},
		{DiaPregao, 9, 10},
		{CodBDI, 11, 12},
		{CodNeg, 13, 24},
		{TpMerc, 25, 27},
		{NomRes, 28, 39},
		{Especi, 40, 49},
		{ModRef, 53, 56},
		{PreAbe, 57, 69},
		{PreMax, 70, 82},
		{PreMin, 83, 95},
		{PreMed, 96, 108},
		{PreUlt, 109, 121},
		{TotNeg, 148, 152},
		{QuaTot, 153, 170},
		{VolTot, 171, 188},
		{FatCot, 211, 217},
		{CodISI, 231, 242},
	}

	histTrailerLayout = Layout{
		{NomeArquivo, 3, 15},
		{CodigoOrigem, 16, 23},
		{DataGeracao, 24, 31},
		{TotalRegistros, 32, 42},
	}
)

// Layouts of the daily bulletin file (BDIN, "BDIN_Bovespa_v11").
var (
	bdinHeaderLayout = Layout{
		{NomeArquivo, 3, 10},
		{CodigoOrigem, 11, 18},
		{CodigoDestino, 19, 22},
		{DataGeracao, 23, 30},
		{AnoPregao, 31, 34},
		{MesPregao, 35, 36},
		{DiaPregao, 37, 38},
		{HoraGeracao, 39, 42},
	}

	bdinQuoteLayout = Layout{
		{CodBDI, 3, 4},
		{NomRes, 35, 46},
		{Especi, 47, 56},
		{CodNeg, 58, 69},
		{TpMerc, 70, 72},
		{PreAbe, 91, 101},
		{PreMax, 102, 112},
		{PreMin, 113, 123},
		{PreMed, 124, 134},
		{PreUlt, 135, 145},
		{TotNeg, 174, 178},
		{QuaTot, 179, 193},
		{VolTot, 194, 210},
		{FatCot, 246, 252},
		{CodISI, 266, 277},
	}

	bdinTrailerLayout = Layout{
		{NomeArquivo, 3, 10},
		{CodigoOrigem, 11, 18},
		{CodigoDestino, 19, 22},
		{DataGeracao, 23, 30},
		{TotalRegistros, 31, 39},
	}
)

// LayoutOf returns the field table of a register kind within a dialect.
func LayoutOf(d Dialect, kind Section) (Layout, error) {
	impl, err := dialectOf(d)
	if err != nil {
		return nil, err
	}
	switch kind {
	case SectionHeader:
		return impl.header, nil
	case SectionQuotes:
		return impl.quote, nil
	case SectionTrailer:
		return impl.trailer, nil
	default:
		return nil, fmt.Errorf("no layout for %s registers", kind)
	}
}

// Extract cuts every field of the layout out of a register line and
// sanitizes it. Columns beyond the end of the line read as spaces.
func (l Layout) Extract(line string) Register {
	reg := make(Register, len(l))
	for _, f := range l {
		reg[f.Name] = Sanitize(column(line, f.From, f.To))
	}
	return reg
}

func column(line string, from, to int) string {
	start, end := from-1, to
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return line[start:end]
}
