package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "resizecache",
		Short: "On-demand image resizing with a cache-aside store",
		Long: `resizecache resizes images stored in an S3 bucket and keeps every
rendition in a cache store so it is computed once.

Configuration comes from the environment (BUCKET_NAME, CACHE_BUCKET,
AWS_REGION, CACHE_BACKEND, ...).

Example usage:
  resizecache serve                               # HTTP server on LISTEN_ADDR
  resizecache resize photos/cat.jpg --width 300   # one rendition to stdout`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newResizeCmd())
	return root
}
