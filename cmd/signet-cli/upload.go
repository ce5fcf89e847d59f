package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/signet/clientcli"
)

var uploadContentType string

var uploadCmd = &cobra.Command{
	Use:   "upload <file> [file...]",
	Short: "Upload files through presigned URLs",
	Long: `Upload one or more files. The server picks each object key; it is
printed after the upload (only the keys with -q).

The content type is detected from the file extension unless overridden,
and must be one the server accepts (png, jpeg, webp, gif by default).

Examples:
  signet-cli upload ./photo.png
  signet-cli upload -q ./a.png ./b.webp > keys.txt
  signet-cli upload --content-type image/jpeg ./scan.dat`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		Paths:       args,
		ContentType: uploadContentType,
	})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return &exitError{code: 1}
	}
	return nil
}
