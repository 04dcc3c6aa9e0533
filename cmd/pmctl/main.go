// Command pmctl is the administration CLI for the project database.
package main

import (
	"os"

	"avencia-pm/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
