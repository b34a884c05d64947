package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/competitive-intel/internal/report"
)

// writeReport renders into path, or into stdout when path is empty.
// Binary formats always need a file.
func writeReport(stdout io.Writer, path string, format report.Format, render func(io.Writer) error) error {
	if path == "" {
		if format.Binary() {
			return eris.Errorf("format %s requires --output", format)
		}
		return render(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create output file")
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "close output file")
	}

	zap.L().Info("report written", zap.String("path", path), zap.String("format", string(format)))
	return nil
}
