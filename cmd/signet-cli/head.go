package main

import (
	"os"

	"github.com/spf13/cobra"
)

var headCmd = &cobra.Command{
	Use:   "head <key>",
	Short: "Show object metadata",
	Long: `Show the content type, size and modification time of an object.

Exits with status 1 when the object does not exist.`,
	Args: cobra.ExactArgs(1),
	RunE: runHead,
}

func runHead(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.Head(cmd.Context(), args[0])
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if err := getFormatter().FormatHead(os.Stdout, result); err != nil {
		return err
	}

	if !result.Exists {
		return &exitError{code: 1}
	}
	return nil
}
