package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/me/gofleet/pkg/geometry"
	"github.com/me/gofleet/pkg/model"
)

func newMissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "missions",
		Aliases: []string{"mission"},
		Short:   "Submit and inspect missions",
	}
	cmd.AddCommand(
		newMissionsListCmd(),
		newMissionsGetCmd(),
		newMissionsSubmitCmd(),
		newMissionsCancelCmd(),
		newMissionsMapCmd(),
	)
	return cmd
}

func newMissionsListCmd() *cobra.Command {
	var status, asset string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List missions",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if status != "" {
				q.Set("status", status)
			}
			if asset != "" {
				q.Set("asset_code", asset)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}
			path := "/api/v1/missions/"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list missions: %w", err)
			}
			var missions []model.Mission
			if err := json.Unmarshal(resp.Data, &missions); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(missions) == 0 {
				fmt.Fprintln(out, "No missions found.")
				return nil
			}
			fmt.Fprintf(out, "%-40s  %-20s  %-10s  %-12s  %s\n", "ID", "STATUS", "ASSET", "MAP", "START")
			fmt.Fprintf(out, "%-40s  %-20s  %-10s  %-12s  %s\n", "----", "------", "-----", "---", "-----")
			for _, m := range missions {
				mapName := "-"
				if m.Map != nil {
					mapName = m.Map.MapName
				}
				fmt.Fprintf(out, "%-40s  %-20s  %-10s  %-12s  %s\n",
					m.ID, m.Status, m.AssetCode, mapName, m.DesiredStartTime.Format(time.RFC3339))
			}
			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Fprintf(out, "\n(%d of %d shown)\n", len(missions), resp.Pagination.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (Pending, InProgress, Failed, ...)")
	cmd.Flags().StringVar(&asset, "asset", "", "Filter by asset code")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of missions to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of missions to skip")
	return cmd
}

func newMissionsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <mission_id>",
		Short: "Show a mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/missions/" + url.PathEscape(args[0]))
			if err != nil {
				return fmt.Errorf("get mission: %w", err)
			}
			var m model.Mission
			if err := json.Unmarshal(resp.Data, &m); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			printMission(cmd, &m)
			return nil
		},
	}
}

func printMission(cmd *cobra.Command, m *model.Mission) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mission: %s\n", m.ID)
	if m.Name != "" {
		fmt.Fprintf(out, "  Name:    %s\n", m.Name)
	}
	fmt.Fprintf(out, "  Status:  %s\n", m.Status)
	if m.StatusReason != "" {
		fmt.Fprintf(out, "  Reason:  %s\n", m.StatusReason)
	}
	robot := m.RobotID
	if m.Robot != nil {
		robot = fmt.Sprintf("%s (%s, %s)", m.Robot.ID, m.Robot.Name, m.Robot.Status)
	}
	fmt.Fprintf(out, "  Robot:   %s\n", robot)
	fmt.Fprintf(out, "  Asset:   %s\n", m.AssetCode)
	fmt.Fprintf(out, "  Start:   %s\n", m.DesiredStartTime.Format(time.RFC3339))
	if m.Map != nil {
		b := m.Map.Boundary
		fmt.Fprintf(out, "  Map:     %s [%g,%g]-[%g,%g] z %g..%g\n", m.Map.MapName, b.X1, b.Y1, b.X2, b.Y2, b.Z1, b.Z2)
	} else {
		fmt.Fprintln(out, "  Map:     none")
	}
	if len(m.Tasks) > 0 {
		fmt.Fprintf(out, "  Tasks:   %d\n", len(m.Tasks))
	}
}

// taskFile is the YAML layout accepted by "missions submit --tasks".
type taskFile struct {
	TagID    string             `yaml:"tag_id"`
	Position *geometry.Position `yaml:"position"`
}

func readTasks(path string) ([]model.PlannedTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	var entries []taskFile
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	tasks := make([]model.PlannedTask, 0, len(entries))
	for _, e := range entries {
		tasks = append(tasks, model.PlannedTask{TagID: e.TagID, TagPosition: e.Position})
	}
	return tasks, nil
}

func newMissionsSubmitCmd() *cobra.Command {
	var robotID, name, asset, start, tasksFile string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a mission for a robot",
		Long:  "Submit a mission. With --tasks, the server assigns the smallest map containing every task position.",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"robot_id": robotID,
				"name":     name,
			}
			if asset != "" {
				req["asset_code"] = asset
			}
			if start != "" {
				t, err := time.Parse(time.RFC3339, start)
				if err != nil {
					return fmt.Errorf("parse --start: %w", err)
				}
				req["desired_start_time"] = t
			}
			if tasksFile != "" {
				tasks, err := readTasks(tasksFile)
				if err != nil {
					return err
				}
				logger.Debug("parsed tasks", "count", len(tasks))
				req["tasks"] = tasks
			}

			resp, err := client.Post("/api/v1/missions/", req)
			if err != nil {
				return fmt.Errorf("submit mission: %w", err)
			}
			var m model.Mission
			if err := json.Unmarshal(resp.Data, &m); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			printMission(cmd, &m)
			return nil
		},
	}
	cmd.Flags().StringVar(&robotID, "robot", "", "Robot ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "Mission name")
	cmd.Flags().StringVar(&asset, "asset", "", "Asset code (defaults to the robot's)")
	cmd.Flags().StringVar(&start, "start", "", "Desired start time, RFC 3339 (default now)")
	cmd.Flags().StringVar(&tasksFile, "tasks", "", "YAML file listing tasks with tag_id and position {x,y,z}")
	cmd.MarkFlagRequired("robot")
	return cmd
}

func newMissionsCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <mission_id>",
		Short: "Cancel a pending mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/missions/"+url.PathEscape(args[0])+"/cancel", nil)
			if err != nil {
				return fmt.Errorf("cancel mission: %w", err)
			}
			var m model.Mission
			if err := json.Unmarshal(resp.Data, &m); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mission %s: %s\n", m.ID, m.Status)
			return nil
		},
	}
}

func newMissionsMapCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "map <mission_id>",
		Short: "Download the map image assigned to a mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := client.GetRaw("/api/v1/missions/" + url.PathEscape(args[0]) + "/map")
			if err != nil {
				return fmt.Errorf("fetch map: %w", err)
			}
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(data), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}
