// Command formful inspects, edits and validates form state documents.
package main

import (
	"os"

	"github.com/goliatone/go-formstate/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
