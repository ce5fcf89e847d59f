package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/signet/clientcli"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <key> [key...]",
	Short: "Delete objects",
	Long: `Delete one or more objects. Deleting a key that does not exist succeeds.

Examples:
  signet-cli delete uploads/2026-01-02/0f3c...e1.png
  signet-cli delete $(cat keys.txt)`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{Keys: args})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if err := getFormatter().FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	// Return error if any deletes failed
	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
