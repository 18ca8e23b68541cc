package cmd

import (
	"context"
	"fmt"

	"github.com/jing2uo/b3hist/utils"
	"github.com/jing2uo/b3hist/workflow"
)

// Import merges one exchange extract into the database. An empty file
// reads standard input.
func Import(ctx context.Context, cfg *Config, file string) error {
	st, err := cfg.OpenStore()
	if err != nil {
		return err
	}

	in := utils.StdinInput()
	if file != "" {
		if in, err = utils.OpenInput(file); err != nil {
			return err
		}
	}
	defer in.Close()

	fmt.Printf("📦 Importing %s\n", in.Name)
	res, err := workflow.Import(ctx, in, st, cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", in.Name, err)
	}

	for _, x := range res.Xplits {
		fmt.Printf("✂️  %s: new price regime from position %d\n", x.Stock, x.LastXplit)
	}
	fmt.Printf("🚀 %s extract imported: %d quotes of %d stocks (%d ignored)\n",
		res.Summary.Dialect, res.Quotes, res.Stocks, res.Summary.Ignored)
	return nil
}
