package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/resizecache"
	"github.com/unkn0wn-root/resizecache/internal/config"
)

var errUsage = errors.New("usage")

type resizeFlags struct {
	width   int
	height  int
	out     string
	timeout time.Duration
}

func newResizeCmd() *cobra.Command {
	var f resizeFlags
	cmd := &cobra.Command{
		Use:   "resize <originalPath>",
		Short: "Produce one rendition through the cache",
		Long: `resize runs a single request through the same pipeline as the server:
the rendition is read from the cache store or computed and stored.
The image goes to --out (stdout when "-"); the cache status goes to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.width == 0 && f.height == 0 {
				return fmt.Errorf("%w: --width or --height is required", errUsage)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel, "console")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
			defer cancel()

			a, err := build(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			return runResize(ctx, a.resizer, args[0], f, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().IntVar(&f.width, "width", 0, "target width in pixels")
	cmd.Flags().IntVar(&f.height, "height", 0, "target height in pixels")
	cmd.Flags().StringVarP(&f.out, "out", "o", "-", `output file ("-" for stdout)`)
	cmd.Flags().DurationVar(&f.timeout, "timeout", 30*time.Second, "overall deadline")
	return cmd
}

type handler interface {
	Handle(ctx context.Context, originalPath, widthRaw, heightRaw string) resizecache.Response
}

func runResize(ctx context.Context, h handler, path string, f resizeFlags, stdout, stderr io.Writer) error {
	resp := h.Handle(ctx, path, dim(f.width), dim(f.height))
	body, err := resp.Payload()
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("resize %s: status %d: %s", path, resp.StatusCode, body)
	}

	if err := writeOutput(f.out, body, stdout); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "%s %s %d bytes\n",
		resp.Headers[resizecache.HeaderCache], resp.Headers[resizecache.HeaderContentType], len(body))
	return nil
}

var createOutput = func(name string) (io.WriteCloser, error) { return os.Create(name) }

// writeOutput returns the Close error when the write itself succeeded.
func writeOutput(path string, body []byte, stdout io.Writer) (err error) {
	if path == "-" {
		_, err = stdout.Write(body)
		return err
	}
	file, err := createOutput(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	_, err = file.Write(body)
	return err
}

func dim(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
