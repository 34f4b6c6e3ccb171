package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo zones and tool instances",
	Long: `Create a Health zone with a weight tracker and a journal, so chat and
automation sessions have state to work against.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := context.Background()

	res := rt.bus.ProcessUserAction(ctx, "zones.create", map[string]any{
		"name":        "Health",
		"description": "Physical health tracking",
		"color":       "green",
	})
	if !res.Success {
		return fmt.Errorf("create zone: %s", res.Err)
	}
	zoneID := res.Data["id"].(string)
	fmt.Printf("zone Health: %s\n", zoneID)

	res = rt.bus.ProcessUserAction(ctx, "tools.create", map[string]any{
		"zone_id":     zoneID,
		"name":        "Weight",
		"tool_type":   "metric_tracker",
		"config_json": `{"schema_id": "metric_data", "unit": "kg", "always_send": true}`,
	})
	if !res.Success {
		return fmt.Errorf("create weight tracker: %s", res.Err)
	}
	fmt.Printf("tool Weight: %s\n", res.Data["id"])

	res = rt.bus.ProcessUserAction(ctx, "tools.create", map[string]any{
		"zone_id":     zoneID,
		"name":        "Daily journal",
		"tool_type":   "journal",
		"config_json": `{"schema_id": "journal_data"}`,
	})
	if !res.Success {
		return fmt.Errorf("create journal: %s", res.Err)
	}
	fmt.Printf("tool Daily journal: %s\n", res.Data["id"])

	return nil
}
