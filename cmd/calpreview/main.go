package main

import (
	"fmt"
	"os"

	"github.com/jw6ventures/calbot/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(cli.NewApp(nil)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
