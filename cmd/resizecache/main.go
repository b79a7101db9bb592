// Command resizecache serves resized images from an S3 origin, caching each
// rendition in S3, Redis or process memory.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
