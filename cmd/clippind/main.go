package main

import (
	"github.com/marmotbay/clippin/internal/cli/cmd"
)

func main() {
	cmd.Execute()
}
