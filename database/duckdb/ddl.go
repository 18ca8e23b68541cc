package duckdb

import (
	"fmt"
	"strings"

	"github.com/jing2uo/b3hist/model"
)

// mapType maps a registry column type to a DuckDB SQL type.
func (d *DuckDBDriver) mapType(dt model.DataType) string {
	switch dt {
	case model.TypeString:
		return "VARCHAR"
	case model.TypeFloat64:
		return "DOUBLE"
	case model.TypeInt64:
		return "BIGINT"
	case model.TypeDate:
		return "DATE"
	case model.TypeDateTime:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

func (d *DuckDBDriver) createTableInternal(meta *model.TableMeta) error {
	colDefs := make([]string, 0, len(meta.Columns))
	for _, col := range meta.Columns {
		colDefs = append(colDefs, fmt.Sprintf("%s %s", col.Name, d.mapType(col.Type)))
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		meta.TableName, strings.Join(colDefs, ", "))

	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", meta.TableName, err)
	}
	return nil
}

func (d *DuckDBDriver) registerViews() {
	// quotes since the latest inplit or split of each stock
	d.viewImpls[model.ViewCurrentRegime] = func() error {
		query := fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s AS
			SELECT q.*
			FROM %s q
			JOIN %s s ON s.stock = q.stock
			WHERE q.seq >= s.last_xplit
		`,
			model.ViewCurrentRegime,
			model.TableDailyQuotes.TableName,
			model.TableStocks.TableName)

		_, err := d.db.Exec(query)
		return err
	}
}
