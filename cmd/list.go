package cmd

import (
	"bufio"
	"fmt"
	"io"
)

// List prints the stocks of the database, one per line.
func List(cfg *Config, w io.Writer) error {
	st, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	ids, err := st.List()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for _, id := range ids {
		fmt.Fprintln(bw, id)
	}
	return bw.Flush()
}
