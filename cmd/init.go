package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/jing2uo/b3hist/store"
	"github.com/jing2uo/b3hist/utils"
)

// Init wipes the database directory and stamps it with the running build.
// Unless force is set, an existing directory is only wiped after the
// operator types "yes" on a terminal.
func Init(cfg *Config, force bool, in *os.File, out io.Writer) error {
	exists, err := utils.PathExists(cfg.DBPath)
	if err != nil {
		return err
	}

	if exists && !force {
		if !isatty.IsTerminal(in.Fd()) && !isatty.IsCygwinTerminal(in.Fd()) {
			return fmt.Errorf("refusing to wipe %s without a terminal; use --force", cfg.DBPath)
		}
		ok, err := confirm(in, out, fmt.Sprintf("⚠️  Every file in %s will be deleted. Type 'yes' to continue: ", cfg.DBPath))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("initialization cancelled")
		}
	}

	if err := store.Init(cfg.DBPath, cfg.Revision); err != nil {
		return err
	}
	fmt.Fprintf(out, "🎉 Database initialized at %s\n", cfg.DBPath)
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(answer) == "yes", nil
}
