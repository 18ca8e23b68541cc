package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jing2uo/b3hist/store"
	"github.com/jing2uo/b3hist/utils"
)

// Version is set at link time.
var Version = "dev"

// Info prints the build identity and the state of the database.
func Info(cfg *Config, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "version\t%s\n", Version)
	fmt.Fprintf(tw, "build date\t%s\n", cfg.Revision.Date)
	fmt.Fprintf(tw, "build time\t%s\n", cfg.Revision.Time)
	fmt.Fprintf(tw, "toolchain\t%s\n", cfg.Revision.Toolchain)
	if cfg.Revision.Build != "" {
		fmt.Fprintf(tw, "commit\t%s\n", cfg.Revision.Build)
	}
	fmt.Fprintf(tw, "database\t%s\n", cfg.DBPath)

	status := "ok"
	exists, err := utils.PathExists(cfg.DBPath)
	switch {
	case err != nil:
		return err
	case !exists:
		status = "missing, run 'b3hist init'"
	default:
		if err := store.CheckRevision(cfg.DBPath, cfg.Revision); errors.Is(err, store.ErrStaleDatabase) {
			status = "stale, run 'b3hist init'"
		} else if err != nil {
			return err
		}
	}
	fmt.Fprintf(tw, "status\t%s\n", status)

	if status == "ok" {
		st, err := cfg.OpenStore()
		if err != nil {
			return err
		}
		ids, err := st.List()
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "stocks\t%d\n", len(ids))
	}
	return tw.Flush()
}
