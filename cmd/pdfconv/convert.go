package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pdfconv/internal/config"
	"pdfconv/internal/converter"
	"pdfconv/internal/logging"
	"pdfconv/internal/model"
	"pdfconv/internal/repository/filesystem"
	"pdfconv/internal/service"
	"pdfconv/internal/storage"
)

// convertOptions are the resolved flags of one conversion subcommand.
type convertOptions struct {
	input   string
	outDir  string
	format  model.Format
	timeout time.Duration
	log     *logging.Logger
}

func newConvertCmd(format model.Format, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(format) + " <file.pdf>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			outDir, _ := cmd.Flags().GetString("out")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			if timeout == 0 {
				timeout = cfg.ConversionTimeout()
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			log := logging.New(io.Discard, cfg.Location())
			if verbose {
				log = logging.New(cmd.ErrOrStderr(), cfg.Location())
			}

			dst, err := runConversion(cmd.Context(), converter.New(cfg.Converters), convertOptions{
				input:   args[0],
				outDir:  outDir,
				format:  format,
				timeout: timeout,
				log:     log,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dst)
			return nil
		},
	}
}

// runConversion stages the input in a scratch workspace, runs the service
// pipeline on it and copies the artifact into opts.outDir. It returns the
// written path.
func runConversion(ctx context.Context, conv *converter.Set, opts convertOptions) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	scratch, err := os.MkdirTemp("", "pdfconv-*")
	if err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	store, err := storage.NewLocal(scratch)
	if err != nil {
		return "", err
	}
	svc := service.NewConversionService(store, filesystem.NewDocumentFS(scratch), conv, service.Options{
		Timeout: opts.timeout,
		Logger:  opts.log,
	})

	in, err := os.Open(opts.input)
	if err != nil {
		return "", err
	}
	defer in.Close()
	st, err := in.Stat()
	if err != nil {
		return "", err
	}

	doc, err := svc.Upload(ctx, in, filepath.Base(opts.input), "", st.Size())
	if err != nil {
		return "", fmt.Errorf("%s: %w", opts.input, err)
	}
	art, rc, err := svc.Convert(ctx, doc.ID, opts.format)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(opts.outDir, art.Filename)
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dst, nil
}

func init() {
	rootCmd.AddCommand(
		newConvertCmd(model.FormatDocx, "Convert to Word (DOCX)"),
		newConvertCmd(model.FormatImages, "Convert every page to JPG, zipped as converted_images.zip"),
		newConvertCmd(model.FormatText, "Extract text (TXT)"),
	)
}
