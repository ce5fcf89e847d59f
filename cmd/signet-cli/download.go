package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/signet/clientcli"
)

var (
	downloadOutput string
	downloadStdout bool
	downloadStream bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <key> [local-path]",
	Short: "Download an object",
	Long: `Download an object by key.

By default the server hands out a presigned GET URL and the bytes come
straight from storage. With --stream they are proxied through the server.

Examples:
  signet-cli download uploads/2026-01-02/0f3c...e1.png
  signet-cli download uploads/2026-01-02/0f3c...e1.png ./photo.png
  signet-cli download --stdout --stream uploads/2026-01-02/0f3c...e1.png > photo.png`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
	downloadCmd.Flags().BoolVar(&downloadStream, "stream", false, "stream through the server instead of a presigned URL")
}

func runDownload(cmd *cobra.Command, args []string) error {
	key := args[0]

	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		Key:       key,
		LocalPath: localPath,
		Stream:    downloadStream,
	})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		if _, err := io.Copy(os.Stdout, reader); err != nil {
			return err
		}
		// Metadata goes to stderr so stdout stays the raw object
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
