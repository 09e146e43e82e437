package main

import (
	"os"

	"github.com/yumyai/conektbuild/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
