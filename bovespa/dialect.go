package bovespa

import "fmt"

// Dialect is one of the two incompatible layouts of an exchange extract.
type Dialect int

const (
	DialectHIST Dialect = iota
	DialectBDIN
)

func (d Dialect) String() string {
	switch d {
	case DialectHIST:
		return "HIST"
	case DialectBDIN:
		return "BDIN"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// Section is the structural role of a register.
type Section int

const (
	SectionHeader Section = iota
	SectionQuotes
	SectionTrailer
	SectionOther
)

func (s Section) String() string {
	switch s {
	case SectionHeader:
		return "header"
	case SectionQuotes:
		return "quotes"
	case SectionTrailer:
		return "trailer"
	case SectionOther:
		return "other"
	default:
		return fmt.Sprintf("Section(%d)", int(s))
	}
}

// Fields is the dialect-neutral view of a quote register. Every value is
// already sanitized.
type Fields struct {
	Year        string // ano_pregao
	Month       string // mes_pregao
	Day         string // dia_pregao
	BDICode     string // cod_bdi
	Ticker      string // cod_neg
	MarketType  string // tp_merc
	ShortName   string // nom_res
	Spec        string // especi
	Currency    string // mod_ref
	Open        string // pre_abe
	Max         string // pre_max
	Min         string // pre_min
	Avg         string // pre_med
	Last        string // pre_ult
	Trades      string // tot_neg
	Quantity    string // qua_tot
	Volume      string // vol_tot
	PriceFactor string // fat_cot
	ISIN        string // cod_isi
}

// dialectSpec binds the tables of one dialect to its register type codes and
// to the way its quote fields map onto Fields.
type dialectSpec struct {
	dialect  Dialect
	magic    string
	header   Layout
	quote    Layout
	trailer  Layout
	sections map[string]Section
	// header fields the trailer must repeat verbatim
	matched  []string
	mapQuote func(header, quote Register) Fields
}

var histSpec = &dialectSpec{
	dialect: DialectHIST,
	magic:   "00COTAHIST",
	header:  histHeaderLayout,
	quote:   histQuoteLayout,
	trailer: histTrailerLayout,
	sections: map[string]Section{
		"00": SectionHeader,
		"01": SectionQuotes,
		"99": SectionTrailer,
	},
	matched: []string{NomeArquivo, CodigoOrigem, DataGeracao},
	mapQuote: func(_, q Register) Fields {
		return Fields{
			Year:        q[AnoPregao],
			Month:       q[MesPregao],
			Day:         q[DiaPregao],
			BDICode:     q[CodBDI],
			Ticker:      q[CodNeg],
			MarketType:  q[TpMerc],
			ShortName:   q[NomRes],
			Spec:        q[Especi],
			Currency:    q[ModRef],
			Open:        q[PreAbe],
			Max:         q[PreMax],
			Min:         q[PreMin],
			Avg:         q[PreMed],
			Last:        q[PreUlt],
			Trades:      q[TotNeg],
			Quantity:    q[QuaTot],
			Volume:      q[VolTot],
			PriceFactor: q[FatCot],
			ISIN:        q[CodISI],
		}
	},
}

// The daily bulletin dates its quotes in the header and only carries
// quotes in local currency.
var bdinSpec = &dialectSpec{
	dialect: DialectBDIN,
	magic:   "00BDIN9999",
	header:  bdinHeaderLayout,
	quote:   bdinQuoteLayout,
	trailer: bdinTrailerLayout,
	sections: map[string]Section{
		"00": SectionHeader,
		"01": SectionOther,
		"02": SectionQuotes,
		"03": SectionOther,
		"04": SectionOther,
		"05": SectionOther,
		"06": SectionOther,
		"07": SectionOther,
		"99": SectionTrailer,
	},
	matched: []string{NomeArquivo, CodigoOrigem, CodigoDestino, DataGeracao},
	mapQuote: func(h, q Register) Fields {
		return Fields{
			Year:        h[AnoPregao],
			Month:       h[MesPregao],
			Day:         h[DiaPregao],
			BDICode:     q[CodBDI],
			Ticker:      q[CodNeg],
			MarketType:  q[TpMerc],
			ShortName:   q[NomRes],
			Spec:        q[Especi],
			Currency:    CurrencyReal,
			Open:        q[PreAbe],
			Max:         q[PreMax],
			Min:         q[PreMin],
			Avg:         q[PreMed],
			Last:        q[PreUlt],
			Trades:      q[TotNeg],
			Quantity:    q[QuaTot],
			Volume:      q[VolTot],
			PriceFactor: q[FatCot],
			ISIN:        q[CodISI],
		}
	},
}

var dialects = []*dialectSpec{histSpec, bdinSpec}

func dialectOf(d Dialect) (*dialectSpec, error) {
	for _, spec := range dialects {
		if spec.dialect == d {
			return spec, nil
		}
	}
	return nil, fmt.Errorf("unknown dialect %s", d)
}

// DetectDialect classifies a file by the first ten characters of its first
// register.
func DetectDialect(firstRegister string) (Dialect, error) {
	for _, spec := range dialects {
		if len(firstRegister) >= len(spec.magic) && firstRegister[:len(spec.magic)] == spec.magic {
			return spec.dialect, nil
		}
	}
	prefix := firstRegister
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return 0, fmt.Errorf("%w: '%s'", ErrUnknownFileType, prefix)
}

// SectionOf maps the two-character type code of a register to its role
// within the dialect.
func SectionOf(d Dialect, register string) (Section, error) {
	spec, err := dialectOf(d)
	if err != nil {
		return 0, err
	}
	code := register
	if len(code) > 2 {
		code = code[:2]
	}
	section, ok := spec.sections[code]
	if !ok {
		return 0, fmt.Errorf("%w: type code '%s' in %s file", ErrUnknownRegister, code, d)
	}
	return section, nil
}
