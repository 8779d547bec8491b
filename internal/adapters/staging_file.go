package adapters

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/schollz/progressbar/v3"

	"apms/internal/ports"
	"apms/internal/types"
)

// StagingFileAdapter stores archives under
// <root>/<name>/<name>-<version>.tar.gz.
type StagingFileAdapter struct {
	Root     string
	Progress bool
	// ProgressOut receives the progress bar; stderr when nil.
	ProgressOut io.Writer
}

func NewStagingFileAdapter(root string, progress bool) StagingFileAdapter {
	return StagingFileAdapter{Root: root, Progress: progress}
}

func (a StagingFileAdapter) PathFor(meta types.PackageMetadata) string {
	layout := types.Layout{StagingRoot: a.Root}
	return layout.StagingPath(meta.Name, meta.Version)
}

func (a StagingFileAdapter) Save(ctx context.Context, meta types.PackageMetadata, body io.Reader, size int64) (string, error) {
	if a.Root == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("staging root is empty")
	}
	dest := a.PathFor(meta)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create staging directory").
			WithCause(err)
	}
	tmpPath := dest + ".part"
	file, err := os.Create(tmpPath)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create package file").
			WithCause(err)
	}
	cleanup := true
	defer func() {
		file.Close()
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	var out io.Writer = file
	var bar *progressbar.ProgressBar
	if a.Progress && size > 0 {
		bar = a.newProgressBar(size, filepath.Base(dest))
		out = io.MultiWriter(file, bar)
	}
	if _, err := io.Copy(out, contextReader{ctx: ctx, r: body}); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write package file").
			WithCause(err)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err := file.Close(); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write package file").
			WithCause(err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to move package file into place").
			WithCause(err)
	}
	cleanup = false
	return dest, nil
}

func (a StagingFileAdapter) newProgressBar(size int64, name string) *progressbar.ProgressBar {
	out := a.ProgressOut
	if out == nil {
		out = os.Stderr
	}
	return progressbar.NewOptions(int(size),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("downloading "+name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ ports.StagingPort = StagingFileAdapter{}
