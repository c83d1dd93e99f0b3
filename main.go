// Package main provides the entry point for the fintrack CLI application.
package main

import (
	"fmt"
	"os"

	"fintrack/cmd/categorize"
	"fintrack/cmd/groups"
	"fintrack/cmd/ingest"
	"fintrack/cmd/root"
	"fintrack/cmd/rules"
	"fintrack/cmd/validate"
)

func init() {
	root.Cmd.AddCommand(ingest.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(groups.Cmd)
	root.Cmd.AddCommand(rules.Cmd)
	root.Cmd.AddCommand(validate.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
