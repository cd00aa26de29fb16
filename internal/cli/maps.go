package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/gofleet/pkg/geometry"
	"github.com/me/gofleet/pkg/model"
)

func newMapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "maps",
		Aliases: []string{"map"},
		Short:   "List and upload asset maps",
	}
	cmd.AddCommand(newMapsListCmd(), newMapsUploadCmd())
	return cmd
}

func newMapsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <asset_code>",
		Short: "List the maps available for an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/assets/" + url.PathEscape(args[0]) + "/maps/")
			if err != nil {
				return fmt.Errorf("list maps: %w", err)
			}
			var maps []model.MapCandidate
			if err := json.Unmarshal(resp.Data, &maps); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(maps) == 0 {
				fmt.Fprintf(out, "No maps found for asset %s.\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "%-24s  %-34s  %-14s  %s\n", "NAME", "AREA (X1,Y1 - X2,Y2)", "ELEVATION", "PIXELS")
			fmt.Fprintf(out, "%-24s  %-34s  %-14s  %s\n", "----", "----", "---------", "------")
			for _, m := range maps {
				b := m.Boundary
				area := fmt.Sprintf("%g,%g - %g,%g", b.X1, b.Y1, b.X2, b.Y2)
				elev := fmt.Sprintf("%g..%g", b.Z1, b.Z2)
				fmt.Fprintf(out, "%-24s  %-34s  %-14s  %dx%d\n", m.Name, area, elev, m.ImageWidth, m.ImageHeight)
			}
			return nil
		},
	}
}

// parseBoundary reads "x1,y1,x2,y2,z1,z2" in meters.
func parseBoundary(s string) (geometry.Boundary, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return geometry.Boundary{}, fmt.Errorf("boundary needs 6 comma-separated values, got %d", len(parts))
	}
	var v [6]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Boundary{}, fmt.Errorf("boundary value %d: %w", i+1, err)
		}
		v[i] = f
	}
	return geometry.NewBoundary(v[0], v[1], v[2], v[3], v[4], v[5]), nil
}

func newMapsUploadCmd() *cobra.Command {
	var boundary, name string
	var width, height int

	cmd := &cobra.Command{
		Use:   "upload <asset_code> <image>",
		Short: "Upload a map image with its world boundary",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := parseBoundary(boundary)
			if err != nil {
				return err
			}
			image, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			if name == "" {
				name = filepath.Base(args[1])
			}

			req := map[string]any{
				"boundary":     b,
				"image_width":  width,
				"image_height": height,
				"image":        image,
			}
			path := "/api/v1/assets/" + url.PathEscape(args[0]) + "/maps/" + url.PathEscape(name)
			if _, err := client.Put(path, req); err != nil {
				return fmt.Errorf("upload map: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Map %s uploaded to asset %s (%d bytes)\n", name, args[0], len(image))
			return nil
		},
	}
	cmd.Flags().StringVar(&boundary, "boundary", "", "World boundary x1,y1,x2,y2,z1,z2 in meters (required)")
	cmd.Flags().StringVar(&name, "name", "", "Map name (default image file name)")
	cmd.Flags().IntVar(&width, "width", 0, "Image width in pixels (required)")
	cmd.Flags().IntVar(&height, "height", 0, "Image height in pixels (required)")
	cmd.MarkFlagRequired("boundary")
	cmd.MarkFlagRequired("width")
	cmd.MarkFlagRequired("height")
	return cmd
}
