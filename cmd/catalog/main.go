// Command catalog manages a catalog of data types, datasets and categories.
package main

import (
	"os"

	"github.com/mesh-intelligence/datacatalog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
