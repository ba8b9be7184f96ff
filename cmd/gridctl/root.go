package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/utmgrid/internal/core/grid"
	"github.com/samirrijal/utmgrid/internal/core/usecases"
	"github.com/samirrijal/utmgrid/internal/pkg/logging"
)

// env is shared by all subcommands.
type env struct {
	logLevel string
}

func (e *env) logger() *slog.Logger {
	return logging.New(os.Stderr, e.logLevel, "text")
}

func (e *env) projection() (*usecases.ProjectionService, error) {
	catalog, err := grid.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return usecases.NewProjectionService(catalog), nil
}

func (e *env) boundaries() (*usecases.BoundaryService, error) {
	catalog, err := grid.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	logger := e.logger()
	return usecases.NewBoundaryService(grid.NewGenerator(catalog, logger), nil, nil, 0, logger), nil
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:   "gridctl",
		Short: "Compute UTM zone boundaries",
		Long: "Compute the UTM zone boundary lines visible in a Web Mercator viewport,\n" +
			"including the Norway and Svalbard exceptions, and related lookups.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newBoundariesCmd(e),
		newProjectCmd(e),
		newZoneCmd(e),
		newExceptionsCmd(e),
	)
	return root
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
