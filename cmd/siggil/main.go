package main

import (
	"os"

	"github.com/bigp7952/siggil-sub002/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
