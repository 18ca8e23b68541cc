package model

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

type DataType int

const (
	TypeString DataType = iota
	TypeFloat64
	TypeInt64
	TypeDate     // YYYY-MM-DD
	TypeDateTime // YYYY-MM-DD HH:MM:SS
)

type Column struct {
	Name string
	Type DataType
}

type TableMeta struct {
	TableName  string
	Columns    []Column
	OrderByKey []string
}

var (
	tableRegistry   []*TableMeta
	tableRegistryMu sync.Mutex
)

func registerTable(t *TableMeta) {
	tableRegistryMu.Lock()
	defer tableRegistryMu.Unlock()
	tableRegistry = append(tableRegistry, t)
}

// AllTables returns every registered table, in registration order.
func AllTables() []*TableMeta {
	tableRegistryMu.Lock()
	defer tableRegistryMu.Unlock()

	result := make([]*TableMeta, len(tableRegistry))
	copy(result, tableRegistry)
	return result
}

// SchemaFromStruct derives a TableMeta from the `col` and `type` tags of a
// struct and registers it.
func SchemaFromStruct(tableName string, model interface{}, orderByKey []string) *TableMeta {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var cols []Column

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		colName := field.Tag.Get("col")
		if colName == "" {
			colName = strings.ToLower(field.Name)
		}

		var dType DataType
		customType := field.Tag.Get("type")
		switch {
		case customType == "date":
			dType = TypeDate
		case customType == "datetime":
			dType = TypeDateTime
		default:
			switch field.Type.Kind() {
			case reflect.String:
				dType = TypeString
			case reflect.Float64, reflect.Float32:
				dType = TypeFloat64
			case reflect.Int, reflect.Int64, reflect.Int32,
				reflect.Uint, reflect.Uint64, reflect.Uint32, reflect.Uint16:
				dType = TypeInt64
			case reflect.Struct:
				if field.Type == reflect.TypeOf(time.Time{}) {
					dType = TypeDateTime
				}
			default:
				dType = TypeString
			}
		}

		cols = append(cols, Column{Name: colName, Type: dType})
	}

	meta := &TableMeta{
		TableName:  tableName,
		Columns:    cols,
		OrderByKey: orderByKey,
	}

	registerTable(meta)

	return meta
}

// MirrorQuote is one row of the daily_quotes mirror table.
// Seq is the position of the quote inside its stock history.
type MirrorQuote struct {
	Stock        string    `col:"stock"         db:"stock"`
	Seq          int64     `col:"seq"           db:"seq"`
	Date         time.Time `col:"date"          db:"date"          type:"date"`
	Spec         string    `col:"spec"          db:"spec"`
	PriceFactor  int64     `col:"price_factor"  db:"price_factor"`
	OpeningPrice int64     `col:"opening_price" db:"opening_price"`
	ClosingPrice int64     `col:"closing_price" db:"closing_price"`
	MinimumPrice int64     `col:"minimum_price" db:"minimum_price"`
	MaximumPrice int64     `col:"maximum_price" db:"maximum_price"`
	AveragePrice int64     `col:"average_price" db:"average_price"`
	TotalTrades  int64     `col:"total_trades"  db:"total_trades"`
	TotalStocks  int64     `col:"total_stocks"  db:"total_stocks"`
	TotalVolume  int64     `col:"total_volume"  db:"total_volume"`
}

// MirrorStock is one row of the stocks mirror table.
type MirrorStock struct {
	Stock     string `col:"stock"      db:"stock"`
	Quotes    int64  `col:"quotes"     db:"quotes"`
	LastXplit int64  `col:"last_xplit" db:"last_xplit"`
}

var TableDailyQuotes = SchemaFromStruct(
	"daily_quotes",
	MirrorQuote{},
	[]string{"stock", "date"},
)

var TableStocks = SchemaFromStruct(
	"stocks",
	MirrorStock{},
	[]string{"stock"},
)
