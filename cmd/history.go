package cmd

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jing2uo/b3hist/model"
	"github.com/jing2uo/b3hist/utils"
	"github.com/jing2uo/b3hist/workflow"
)

// History exports the series of one stock to output, or to w when output
// is empty.
func History(cfg *Config, stock string, opts workflow.ExportOptions, output string, w io.Writer) error {
	id := model.StockID(stock)
	if err := id.Validate(); err != nil {
		return err
	}
	st, err := cfg.OpenStore()
	if err != nil {
		return err
	}

	if output != "" {
		if err := utils.CheckOutputFile(output); err != nil {
			return err
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer f.Close()
		w = f
	}

	n, err := workflow.ExportHistory(st, id, opts, w)
	if err != nil {
		if output != "" {
			os.Remove(output)
		}
		return err
	}
	cfg.Log.Debug("history exported", zap.String("stock", id.String()), zap.Int("quotes", n))
	return nil
}
