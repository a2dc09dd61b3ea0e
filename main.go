package main

import (
	"os"

	"github.com/homevolt/dayahead/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
