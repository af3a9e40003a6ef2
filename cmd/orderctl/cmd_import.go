package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
)

// importedDir receives files moved by import --move.
const importedDir = "Imported"

func newImportCmd(a *app) *cobra.Command {
	var move bool
	cmd := &cobra.Command{
		Use:   "import FILE|DIR...",
		Short: "Parse spreadsheets and add them to the uploaded files",
		Long: `Parse one or more .xlsx, .xls or .csv files and store their rows.

Directories are scanned (not recursively) for supported files. Every file must
parse: if any file fails, nothing is stored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, a, args, move)
		},
	}
	cmd.Flags().BoolVar(&move, "move", false, "move imported files into an "+importedDir+" subdirectory")
	return cmd
}

func runImport(cmd *cobra.Command, a *app, args []string, move bool) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return userError(fmt.Errorf("no spreadsheets found: %w", core.ErrNoFile))
	}
	if limit := a.cfg.Upload.MaxFiles; limit > 0 && len(paths) > limit {
		return userError(&core.ValidationError{Message: fmt.Sprintf("at most %d files can be imported at once", limit)})
	}

	files := make([]core.UploadFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		if size := a.cfg.Upload.MaxFileSize; size > 0 && int64(len(data)) > size {
			return userError(fmt.Errorf("%s: %w", p, core.ErrFileTooLarge))
		}
		files = append(files, core.UploadFile{
			Name:        filepath.Base(p),
			ContentType: core.ContentTypeForFile(p),
			Data:        data,
		})
	}

	records, err := a.svc.ImportFiles(ctxOf(cmd), files)
	if err != nil {
		return userError(err)
	}

	out := cmd.OutOrStdout()
	for _, rec := range records {
		fmt.Fprintf(out, "%s\t%d rows\n", rec.Name, len(rec.Rows))
	}

	if move {
		for _, p := range paths {
			if err := moveImported(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// expandPaths returns args with every directory replaced by the supported
// spreadsheets directly inside it.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || core.ContentTypeForFile(e.Name()) == "" {
				continue
			}
			paths = append(paths, filepath.Join(arg, e.Name()))
		}
	}
	return paths, nil
}

// moveImported moves path into the Imported directory next to it.
func moveImported(path string) error {
	dir := filepath.Join(filepath.Dir(path), importedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	dest := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("move %s: %w", path, err)
	}
	slog.Debug("moved imported file", "from", path, "to", dest)
	return nil
}
