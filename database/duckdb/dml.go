package duckdb

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jing2uo/b3hist/model"
)

func (d *DuckDBDriver) importCSV(ex sqlx.Execer, meta *model.TableMeta, csvPath string) error {
	colMaps := make([]string, 0, len(meta.Columns))
	for _, col := range meta.Columns {
		colMaps = append(colMaps, fmt.Sprintf("'%s': '%s'", col.Name, d.mapType(col.Type)))
	}

	query := fmt.Sprintf(`
		INSERT INTO %s
		SELECT * FROM read_csv('%s',
			header=true,
			columns={%s},
			dateformat='%%Y-%%m-%%d'
		)
	`, meta.TableName, strings.ReplaceAll(csvPath, "'", "''"), strings.Join(colMaps, ", "))

	if _, err := ex.Exec(query); err != nil {
		return fmt.Errorf("failed to import %s into %s: %w", csvPath, meta.TableName, err)
	}
	return nil
}

func (d *DuckDBDriver) truncateTable(ex sqlx.Execer, meta *model.TableMeta) error {
	query := fmt.Sprintf("DELETE FROM %s", meta.TableName)
	if _, err := ex.Exec(query); err != nil {
		return fmt.Errorf("duckdb truncate failed: %w", err)
	}
	return nil
}

// replace swaps the rows of a table for the content of csvPath in one
// transaction; a failed import keeps the previous rows.
func (d *DuckDBDriver) replace(meta *model.TableMeta, csvPath string) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := d.truncateTable(tx, meta); err != nil {
		return err
	}
	if err := d.importCSV(tx, meta, csvPath); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", meta.TableName, err)
	}
	return nil
}

func (d *DuckDBDriver) ReplaceDailyQuotes(csvPath string) error {
	return d.replace(model.TableDailyQuotes, csvPath)
}

func (d *DuckDBDriver) ReplaceStocks(csvPath string) error {
	return d.replace(model.TableStocks, csvPath)
}

func (d *DuckDBDriver) CountRows(meta *model.TableMeta) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT count(*) FROM %s", meta.TableName)
	if err := d.db.Get(&n, query); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", meta.TableName, err)
	}
	return n, nil
}

func (d *DuckDBDriver) QueryStocks() ([]model.MirrorStock, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY stock", model.TableStocks.TableName)

	var results []model.MirrorStock
	if err := d.db.Select(&results, query); err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	return results, nil
}

func (d *DuckDBDriver) QueryCurrentRegime(stock model.StockID) ([]model.MirrorQuote, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE stock = ? ORDER BY date", model.ViewCurrentRegime)

	var results []model.MirrorQuote
	if err := d.db.Select(&results, query, stock.String()); err != nil {
		return nil, fmt.Errorf("failed to query current regime of %s: %w", stock, err)
	}
	return results, nil
}
