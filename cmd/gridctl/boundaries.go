package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/utmgrid/internal/adapters/nats"
	"github.com/samirrijal/utmgrid/internal/adapters/overlay"
	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/pkg/geospatial"
)

func newBoundariesCmd(e *env) *cobra.Command {
	var (
		bbox     []float64
		svg      bool
		widthPx  float64
		natsURL  string
		subject  string
		deadline time.Duration
	)

	cmd := &cobra.Command{
		Use:   "boundaries",
		Short: "Print the zone boundaries inside a geographic box",
		Long: "Print the zone boundaries inside --bbox west,south,east,north as JSON,\n" +
			"or as an SVG overlay with --svg. An east edge west of the west edge\n" +
			"crosses the antimeridian.",
		Example: "  gridctl boundaries --bbox=0,56,12,64\n" +
			"  gridctl boundaries --bbox=1,74,41,80 --svg > svalbard.svg",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(bbox) != 4 {
				return fmt.Errorf("--bbox needs 4 values, got %d", len(bbox))
			}
			viewport, err := geospatial.ProjectBounds(domain.Bounds{
				West: bbox[0], South: bbox[1], East: bbox[2], North: bbox[3],
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), deadline)
			defer cancel()

			var set domain.BoundarySet
			if natsURL != "" {
				conn, err := natsadapter.RawConn(natsURL)
				if err != nil {
					return fmt.Errorf("nats connect: %w", err)
				}
				defer conn.Close()
				set, err = natsadapter.RequestBoundaries(ctx, conn, subject, viewport)
				if err != nil {
					return err
				}
			} else {
				svc, err := e.boundaries()
				if err != nil {
					return err
				}
				if set, err = svc.Compute(ctx, viewport); err != nil {
					return err
				}
			}

			if !svg {
				return writeJSON(cmd.OutOrStdout(), set)
			}
			if !(widthPx > 0) {
				return fmt.Errorf("--width-px must be positive")
			}
			doc := overlay.NewSVG(viewport)
			if _, err := overlay.Draw(set.Segments, doc, widthPx/viewport.Width); err != nil {
				return err
			}
			_, err = doc.WriteTo(cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().Float64SliceVar(&bbox, "bbox", nil, "west,south,east,north in degrees")
	cmd.Flags().BoolVar(&svg, "svg", false, "print an SVG overlay instead of JSON")
	cmd.Flags().Float64Var(&widthPx, "width-px", 1024, "display width the SVG stroke widths are scaled for")
	cmd.Flags().StringVar(&natsURL, "nats", "", "ask a responder at this NATS URL instead of computing locally")
	cmd.Flags().StringVar(&subject, "subject", "utm.boundaries.compute", "responder subject")
	cmd.Flags().DurationVar(&deadline, "timeout", 5*time.Second, "overall deadline")
	_ = cmd.MarkFlagRequired("bbox")
	return cmd
}
