package bovespa

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jing2uo/b3hist/model"
)

// maxRegisterLength bounds a register line; the layouts use at most 350
// characters.
const maxRegisterLength = 0x200

// Summary describes a fully parsed extract.
type Summary struct {
	Dialect   Dialect
	Header    Register
	Registers int // registers consumed, header and trailer included
	Quotes    int // quotes emitted
	Ignored   int // quote registers filtered out as irrelevant
	Others    int // passthrough registers without quote data
}

// Parser is the section state machine of one extract. Registers are fed one
// at a time, in file order.
type Parser struct {
	spec    *dialectSpec
	section Section
	done    bool
	summary Summary
}

func NewParser() *Parser {
	return &Parser{section: SectionHeader}
}

// Feed consumes one register. It returns the quote carried by the register,
// or nil when the register carries no relevant quote.
func (p *Parser) Feed(line string) (*model.StockQuote, error) {
	p.summary.Registers++
	sq, err := p.feed(line)
	if err != nil {
		return nil, &RegisterError{Register: p.summary.Registers, Err: err}
	}
	return sq, nil
}

func (p *Parser) feed(line string) (*model.StockQuote, error) {
	if p.done {
		return nil, ErrTrailingGarbage
	}

	if p.spec == nil {
		d, err := DetectDialect(line)
		if err != nil {
			return nil, err
		}
		if p.spec, err = dialectOf(d); err != nil {
			return nil, err
		}
		p.summary.Dialect = d
	}

	kind, err := SectionOf(p.spec.dialect, line)
	if err != nil {
		return nil, err
	}

	switch p.section {
	case SectionHeader:
		if kind != SectionHeader {
			return nil, fmt.Errorf("%w: expected header, got %s register", ErrIncompleteFile, kind)
		}
		header := p.spec.header.Extract(line)
		if header[CodigoOrigem] != "BOVESPA" {
			return nil, fmt.Errorf("%w: %s is '%s'", ErrHeaderGarbage, CodigoOrigem, header[CodigoOrigem])
		}
		p.summary.Header = header
		p.section = SectionQuotes
		return nil, nil

	case SectionQuotes:
		switch kind {
		case SectionHeader:
			return nil, ErrDuplicateHeader
		case SectionOther:
			p.summary.Others++
			return nil, nil
		case SectionTrailer:
			if err := p.verifyTrailer(p.spec.trailer.Extract(line)); err != nil {
				return nil, err
			}
			p.section = SectionTrailer
			p.done = true
			return nil, nil
		}

		fields := p.spec.mapQuote(p.summary.Header, p.spec.quote.Extract(line))
		if !Relevant(fields) {
			p.summary.Ignored++
			return nil, nil
		}
		sq, err := Convert(fields)
		if err != nil {
			return nil, err
		}
		p.summary.Quotes++
		return &sq, nil
	}

	return nil, ErrTrailingGarbage
}

func (p *Parser) verifyTrailer(trailer Register) error {
	for _, name := range p.spec.matched {
		if p.summary.Header[name] != trailer[name] {
			return fmt.Errorf("%w: field %s, header '%s', trailer '%s'",
				ErrTrailerMismatch, name, p.summary.Header[name], trailer[name])
		}
	}

	declared, err := strconv.ParseUint(trailer[TotalRegistros], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: field %s ('%s')", ErrBadNumber, TotalRegistros, trailer[TotalRegistros])
	}
	if declared != uint64(p.summary.Registers) {
		return fmt.Errorf("%w: %d registers read, trailer declares %d",
			ErrRegisterCount, p.summary.Registers, declared)
	}
	return nil
}

// Close checks that the stream ended right after its trailer.
func (p *Parser) Close() (*Summary, error) {
	if p.summary.Registers == 0 {
		return nil, ErrEmptyInput
	}
	if !p.done {
		return nil, fmt.Errorf("%w: input ended in %s section after %d registers",
			ErrIncompleteFile, p.section, p.summary.Registers)
	}
	summary := p.summary
	return &summary, nil
}

// Parse reads a whole extract and hands every relevant quote to emit.
// Nothing is emitted past the first error.
func Parse(r io.Reader, emit func(model.StockQuote) error) (*Summary, error) {
	p := NewParser()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, maxRegisterLength), 16*maxRegisterLength)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		sq, err := p.Feed(line)
		if err != nil {
			return nil, err
		}
		if sq == nil {
			continue
		}
		if err := emit(*sq); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bovespa file: %w", err)
	}

	return p.Close()
}

// ParseAll is Parse collecting the quotes in file order.
func ParseAll(r io.Reader) ([]model.StockQuote, *Summary, error) {
	var quotes []model.StockQuote
	summary, err := Parse(r, func(sq model.StockQuote) error {
		quotes = append(quotes, sq)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return quotes, summary, nil
}
