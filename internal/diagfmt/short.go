package diagfmt

import (
	"fmt"
	"io"

	"rbsec/internal/diag"
	"rbsec/internal/source"
)

// Short prints one line per diagnostic:
//
//	warning COP4001 app/x.rb:3:8 Security/Open: The use of ...
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet) error {
	out := diag.FormatShort(bag.Items(), fs, false)
	if out == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, out)
	return err
}
