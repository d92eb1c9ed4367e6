package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	devenv "seoassist-backend/dev/env"
)

type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) FilesystemOutput {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		panic(err)
	}
	os.RemoveAll(dir)
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		panic(err)
	}
	return FilesystemOutput{directory: dir}
}

// fileName zero-pads numeric ids so a directory listing shows exchanges
// in the order they happened. A raced fetch dumps several files per call
// and "10" sorting before "2" makes the sequence unreadable.
func fileName(id string) string {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return id + ".txt"
	}
	return fmt.Sprintf("%06d.txt", n)
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, fileName(id)), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}
