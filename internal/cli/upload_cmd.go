// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/docmind/docmind-tui/internal/upload"
)

func newUploadCommand(r *runtime) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:     "upload <file>",
		Short:   "Upload a PDF, DOCX or PPTX document",
		Example: "  docmind upload ~/Documents/handbook.pdf",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.openSession(); err != nil {
				return err
			}
			uploader := upload.NewUploader(r.client, r.sessions, r.log)

			var progress func(sent, total int64)
			if !quiet && !r.jsonOut {
				progress = progressPrinter(r.stderr)
			}

			doc, err := uploader.UploadPath(cmd.Context(), upload.CleanDroppedPath(args[0]), progress)
			if progress != nil {
				fmt.Fprintln(r.stderr)
			}
			if err != nil {
				return NewCommandError("upload", upload.Message(err), err)
			}

			if r.jsonOut {
				return NewJSONResponse("upload", map[string]any{
					"name": doc.Name,
					"kind": doc.Kind.String(),
					"size": doc.Size,
				}).Print(r.stdout)
			}
			fmt.Fprintln(r.stdout, RenderSuccess(fmt.Sprintf("Uploaded %s (%s, %s)", doc.Name, doc.Kind, doc.SizeLabel())))
			fmt.Fprintln(r.stdout, DimStyle.Render("Ask about it with 'docmind ask' or 'docmind chat'."))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not show progress")
	return cmd
}

// progressPrinter returns a callback drawing a one-line percentage bar.
func progressPrinter(w io.Writer) func(sent, total int64) {
	width := min(30, GetTerminalWidth()-24)
	last := -1
	return func(sent, total int64) {
		if total <= 0 {
			return
		}
		pct := int(sent * 100 / total)
		if pct == last {
			return
		}
		last = pct
		filled := pct * width / 100
		bar := make([]rune, width)
		for i := range bar {
			if i < filled {
				bar[i] = '█'
			} else {
				bar[i] = '░'
			}
		}
		fmt.Fprintf(w, "\rUploading [%s] %3d%%", string(bar), pct)
	}
}
