package cli

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/me/gofleet/pkg/model"
)

func newRobotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "robots",
		Aliases: []string{"robot"},
		Short:   "Register robots and report their status",
	}
	cmd.AddCommand(newRobotsListCmd(), newRobotsAddCmd(), newRobotsStatusCmd())
	return cmd
}

func newRobotsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List robots",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/robots/")
			if err != nil {
				return fmt.Errorf("list robots: %w", err)
			}
			var robots []model.Robot
			if err := json.Unmarshal(resp.Data, &robots); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(robots) == 0 {
				fmt.Fprintln(out, "No robots registered.")
				return nil
			}
			fmt.Fprintf(out, "%-40s  %-16s  %-18s  %-10s  %s\n", "ID", "NAME", "STATUS", "ASSET", "TRANSPORT")
			fmt.Fprintf(out, "%-40s  %-16s  %-18s  %-10s  %s\n", "----", "----", "------", "-----", "---------")
			for _, r := range robots {
				fmt.Fprintf(out, "%-40s  %-16s  %-18s  %-10s  %s\n", r.ID, r.Name, r.Status, r.AssetCode, r.Transport)
			}
			return nil
		},
	}
}

func newRobotsAddCmd() *cobra.Command {
	var req struct {
		Name         string `json:"name"`
		SerialNumber string `json:"serial_number,omitempty"`
		AssetCode    string `json:"asset_code,omitempty"`
		Status       string `json:"status,omitempty"`
		Transport    string `json:"transport,omitempty"`
		Host         string `json:"host,omitempty"`
		Port         int    `json:"port,omitempty"`
	}

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a robot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			resp, err := client.Post("/api/v1/robots/", req)
			if err != nil {
				return fmt.Errorf("register robot: %w", err)
			}
			var r model.Robot
			if err := json.Unmarshal(resp.Data, &r); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Robot registered: %s (%s)\n", r.ID, r.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.SerialNumber, "serial", "", "Serial number (required for mqtt)")
	cmd.Flags().StringVar(&req.AssetCode, "asset", "", "Asset code the robot operates in")
	cmd.Flags().StringVar(&req.Status, "status", "", "Initial status (default Offline)")
	cmd.Flags().StringVar(&req.Transport, "transport", "http", "Dispatch transport: http or mqtt")
	cmd.Flags().StringVar(&req.Host, "host", "", "Robot API host (required for http)")
	cmd.Flags().IntVar(&req.Port, "port", 0, "Robot API port")
	return cmd
}

func newRobotsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <robot_id> <Available|Offline|MissionInProgress>",
		Short: "Report a robot's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Put("/api/v1/robots/"+url.PathEscape(args[0])+"/status", map[string]string{"status": args[1]})
			if err != nil {
				return fmt.Errorf("update robot status: %w", err)
			}
			var r model.Robot
			if err := json.Unmarshal(resp.Data, &r); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Robot %s: %s\n", r.ID, r.Status)
			return nil
		},
	}
}
