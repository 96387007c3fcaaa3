// Command plot keeps track of the entities, events and experiences of a
// story.
package main

import (
	"os"

	"github.com/roach88/plotline/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
