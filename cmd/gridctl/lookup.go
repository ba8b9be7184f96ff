package main

import (
	"github.com/spf13/cobra"

	"github.com/samirrijal/utmgrid/internal/core/domain"
)

func newProjectCmd(e *env) *cobra.Command {
	var lon, lat float64
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Convert longitude/latitude to map units",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := e.projection()
			if err != nil {
				return err
			}
			p, err := svc.Project(domain.GeoPoint{Lon: lon, Lat: lat})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	pointFlags(cmd, &lon, &lat)
	return cmd
}

func newZoneCmd(e *env) *cobra.Command {
	var lon, lat float64
	cmd := &cobra.Command{
		Use:   "zone",
		Short: "Print the UTM zone containing a point",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := e.projection()
			if err != nil {
				return err
			}
			info, err := svc.LookupZone(cmd.Context(), domain.GeoPoint{Lon: lon, Lat: lat})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
	pointFlags(cmd, &lon, &lat)
	return cmd
}

func newExceptionsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "exceptions",
		Short: "List the Norway and Svalbard exception entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := e.projection()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), svc.Exceptions(nil))
		},
	}
}

func pointFlags(cmd *cobra.Command, lon, lat *float64) {
	cmd.Flags().Float64Var(lon, "lon", 0, "longitude in degrees")
	cmd.Flags().Float64Var(lat, "lat", 0, "latitude in degrees")
	_ = cmd.MarkFlagRequired("lon")
	_ = cmd.MarkFlagRequired("lat")
}
