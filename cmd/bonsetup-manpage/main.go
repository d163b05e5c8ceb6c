package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/bonsetup/cmd/bonsetup"
	"github.com/arthur-debert/bonsetup/internal/version"
)

func main() {
	rootCmd := bonsetup.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "BONSETUP",
		Section: "1",
		Source:  "bonsetup " + version.Version,
		Manual:  "bonsetup manual",
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
