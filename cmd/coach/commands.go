package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kalambet/coach/internal/agents"
	"github.com/kalambet/coach/internal/config"
	"github.com/kalambet/coach/internal/goal"
	"github.com/kalambet/coach/internal/ledger"
	"github.com/kalambet/coach/internal/radar"
	"github.com/kalambet/coach/internal/storage"
)

// --- radar ---

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask the crypto radar agent",
	Long: `Send a chat message to the crypto radar agent.

Examples:
  coach ask "Price of AVAX"
  coach ask "Create alert for BTC above 70000"
  coach ask "Show my alerts 0x..."`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runAsk(cmd.Context(), client, os.Stdout, strings.Join(args, " "))
	},
}

func runAsk(ctx context.Context, c *apiClient, w io.Writer, message string) error {
	resp, err := c.post(ctx, "/agent", map[string]string{"message": message})
	if err != nil {
		return err
	}

	var out radar.Response
	if err := decodeJSON(resp, &out); err != nil {
		return err
	}

	fmt.Fprintln(w, out.Reply)
	for _, a := range out.Actions {
		switch {
		case a.TxHash != "":
			fmt.Fprintf(w, "  %s %s\n", colorize(colorCyan, "tx:"), a.TxHash)
		case len(a.Alerts) > 0:
			printAlertTable(w, a.Alerts)
		}
	}
	return nil
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List on-chain price alerts for a wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runAlerts(cmd.Context(), client, os.Stdout, owner)
	},
}

func init() {
	alertsCmd.Flags().String("owner", "", "wallet address (0x...)")
	alertsCmd.MarkFlagRequired("owner")
}

func runAlerts(ctx context.Context, c *apiClient, w io.Writer, owner string) error {
	resp, err := c.get(ctx, "/alerts?owner="+url.QueryEscape(owner))
	if err != nil {
		return err
	}

	var out struct {
		Alerts []ledger.AlertRecord `json:"alerts"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return err
	}

	if len(out.Alerts) == 0 {
		fmt.Fprintln(w, "No alerts found.")
		return nil
	}
	printAlertTable(w, out.Alerts)
	return nil
}

func printAlertTable(w io.Writer, alerts []ledger.AlertRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tCONDITION\tTARGET\tCREATED\tSTATE")
	for _, a := range alerts {
		cond := "below"
		if a.IsAbove {
			cond = "above"
		}
		state := colorize(colorYellow, "inactive")
		if a.Active {
			state = colorize(colorGreen, "active")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.Symbol, cond, a.TargetPriceUsd, a.CreatedAt, state)
	}
	tw.Flush()
}

// --- goal ---

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Run the goal coaching agents",
}

var goalIntakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Turn a resolution into a structured goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := agents.IntakeInput{}
		in.Resolution, _ = cmd.Flags().GetString("resolution")
		in.TimeframeWeeks = intFlag(cmd, "weeks")
		in.Motivation, _ = cmd.Flags().GetString("motivation")
		in.Constraints, _ = cmd.Flags().GetStringSlice("constraint")

		return withClient(func(c *apiClient) error {
			var out goal.Intake
			if err := callAgent(cmd.Context(), c, "/agents/intake", in, &out); err != nil {
				return err
			}
			printSuccess("Created goal %s", out.GoalID)
			return writeIndented(os.Stdout, out)
		})
	},
}

var goalPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Break a goal into weekly milestones and daily commitments",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := agents.PlannerInput{}
		in.GoalID, _ = cmd.Flags().GetString("goal-id")
		in.Goal, _ = cmd.Flags().GetString("goal")
		in.TimeframeWeeks = intFlag(cmd, "weeks")
		in.SuccessMetric, _ = cmd.Flags().GetString("metric")
		in.Constraints, _ = cmd.Flags().GetStringSlice("constraint")

		return withClient(func(c *apiClient) error {
			var out goal.Plan
			if err := callAgent(cmd.Context(), c, "/agents/planner", in, &out); err != nil {
				return err
			}
			return writeIndented(os.Stdout, out)
		})
	},
}

var goalCheckInCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Record an accountability check-in",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := agents.AccountabilityInput{}
		in.GoalID, _ = cmd.Flags().GetString("goal-id")
		in.CheckInNote, _ = cmd.Flags().GetString("note")
		in.Mood, _ = cmd.Flags().GetString("mood")
		in.CompletedTasks = intFlag(cmd, "completed")

		return withClient(func(c *apiClient) error {
			var out goal.CheckIn
			if err := callAgent(cmd.Context(), c, "/agents/accountability", in, &out); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", colorize(colorBold, "Status:"), colorize(moodColor(out.Status), out.Status))
			fmt.Printf("%s %s\n", colorize(colorBold, "Recommendation:"), out.Recommendation)
			fmt.Printf("%s %s\n", colorize(colorBold, "Next action:"), out.NextAction)
			return nil
		})
	},
}

var goalReflectCmd = &cobra.Command{
	Use:   "reflect",
	Short: "Summarize a week of progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := agents.ReflectionInput{}
		in.GoalID, _ = cmd.Flags().GetString("goal-id")
		in.WeekHighlights, _ = cmd.Flags().GetStringSlice("highlight")
		in.Blockers, _ = cmd.Flags().GetStringSlice("blocker")

		return withClient(func(c *apiClient) error {
			var out goal.Reflection
			if err := callAgent(cmd.Context(), c, "/agents/reflection", in, &out); err != nil {
				return err
			}
			return writeIndented(os.Stdout, out)
		})
	},
}

var goalUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Edit goal timeframe, motivation or constraints",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := agents.GoalUpdateInput{}
		in.GoalID, _ = cmd.Flags().GetString("goal-id")
		in.TimeframeWeeks = intFlag(cmd, "weeks")
		in.Motivation, _ = cmd.Flags().GetString("motivation")
		in.Constraints, _ = cmd.Flags().GetStringSlice("constraint")

		return withClient(func(c *apiClient) error {
			resp, err := c.patch(cmd.Context(), "/agents/goal", in)
			if err != nil {
				return err
			}
			var out struct {
				OK bool `json:"ok"`
			}
			if err := decodeJSON(resp, &out); err != nil {
				return err
			}
			printSuccess("Updated goal %s", in.GoalID)
			return nil
		})
	},
}

var goalShowCmd = &cobra.Command{
	Use:   "show <goal-id>",
	Short: "Show the full record of a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *apiClient) error {
			return runShowGoal(cmd.Context(), c, os.Stdout, "/agents/goal/"+url.PathEscape(args[0]))
		})
	},
}

var goalLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the goal this session touched last",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *apiClient) error {
			return runShowGoal(cmd.Context(), c, os.Stdout, "/agents/goal/latest")
		})
	},
}

func init() {
	goalIntakeCmd.Flags().String("resolution", "", "the resolution in your own words")
	goalIntakeCmd.Flags().Int("weeks", 0, "timeframe in weeks (1-52)")
	goalIntakeCmd.Flags().String("motivation", "", "why this matters to you")
	goalIntakeCmd.Flags().StringSlice("constraint", nil, "constraint (repeatable)")

	goalPlanCmd.Flags().String("goal-id", "", "goal id from intake")
	goalPlanCmd.Flags().String("goal", "", "goal statement")
	goalPlanCmd.Flags().Int("weeks", 0, "timeframe in weeks (1-52)")
	goalPlanCmd.Flags().String("metric", "", "success metric")
	goalPlanCmd.Flags().StringSlice("constraint", nil, "constraint (repeatable)")

	goalCheckInCmd.Flags().String("goal-id", "", "goal id")
	goalCheckInCmd.Flags().String("note", "", "how the week went")
	goalCheckInCmd.Flags().String("mood", "steady", "low, steady or high")
	goalCheckInCmd.Flags().Int("completed", 0, "tasks completed since the last check-in")

	goalReflectCmd.Flags().String("goal-id", "", "goal id")
	goalReflectCmd.Flags().StringSlice("highlight", nil, "week highlight (repeatable)")
	goalReflectCmd.Flags().StringSlice("blocker", nil, "blocker (repeatable)")

	goalUpdateCmd.Flags().String("goal-id", "", "goal id")
	goalUpdateCmd.Flags().Int("weeks", 0, "timeframe in weeks (1-52)")
	goalUpdateCmd.Flags().String("motivation", "", "why this matters to you")
	goalUpdateCmd.Flags().StringSlice("constraint", nil, "constraint (repeatable)")

	goalCmd.AddCommand(goalIntakeCmd, goalPlanCmd, goalCheckInCmd, goalReflectCmd)
	goalCmd.AddCommand(goalUpdateCmd, goalShowCmd, goalLatestCmd)
}

// intFlag returns nil for an unset flag so the server reports the field as required.
func intFlag(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	n, _ := cmd.Flags().GetInt(name)
	return &n
}

func withClient(fn func(c *apiClient) error) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	return fn(client)
}

// callAgent posts in to an agent route and decodes the result into out.
// Validation failures come back as 400 and are reported with their field issues.
func callAgent(ctx context.Context, c *apiClient, path string, in, out any) error {
	resp, err := c.post(ctx, path, in)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

func runShowGoal(ctx context.Context, c *apiClient, w io.Writer, path string) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}

	var rec goal.Record
	if err := decodeJSON(resp, &rec); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s\n", colorize(colorBold, rec.GoalID), rec.Intake.Goal)
	fmt.Fprintf(w, "  metric:    %s\n", rec.Intake.SuccessMetric)
	fmt.Fprintf(w, "  cadence:   %s\n", rec.Intake.WeeklyCadence)
	fmt.Fprintf(w, "  timeframe: %d weeks\n", rec.TimeframeWeeks)
	if rec.Plan != nil {
		fmt.Fprintf(w, "  focus:     %s\n", rec.Plan.Focus)
	}
	fmt.Fprintf(w, "  check-ins: %d, reflections: %d\n", len(rec.CheckIns), len(rec.Reflections))
	if len(rec.CheckIns) > 0 {
		last := rec.CheckIns[0]
		fmt.Fprintf(w, "  last:      %s (%s)\n", colorize(moodColor(last.Status), last.Status), last.NextAction)
	}
	if !rec.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "  updated:   %s\n", humanize.Time(rec.UpdatedAt))
	}
	return nil
}

func moodColor(status string) string {
	if status == "On track" {
		return colorGreen
	}
	return colorYellow
}

// --- admin ---

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "PowerSense hostel consumption reports",
}

var adminSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show total consumption and the estimated bill",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *apiClient) error {
			s, err := fetchSummary(cmd.Context(), c)
			if err != nil {
				return err
			}
			printSummary(os.Stdout, s)
			return nil
		})
	},
}

var adminRoomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List metered rooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *apiClient) error {
			return runRooms(cmd.Context(), c, os.Stdout)
		})
	},
}

var adminAlertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List consumption alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *apiClient) error {
			return runPowerAlerts(cmd.Context(), c, os.Stdout)
		})
	},
}

var adminUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show daily consumption for the current week",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *apiClient) error {
			return runDailyUsage(cmd.Context(), c, os.Stdout)
		})
	},
}

func init() {
	adminCmd.AddCommand(adminSummaryCmd, adminRoomsCmd, adminAlertsCmd, adminUsageCmd)
}

func fetchSummary(ctx context.Context, c *apiClient) (storage.UsageSummary, error) {
	var s storage.UsageSummary
	resp, err := c.get(ctx, "/admin/summary")
	if err != nil {
		return s, err
	}
	err = decodeJSON(resp, &s)
	return s, err
}

func printSummary(w io.Writer, s storage.UsageSummary) {
	fmt.Fprintf(w, "%s %d\n", colorize(colorBold, "Rooms:"), s.TotalRooms)
	fmt.Fprintf(w, "%s %d\n", colorize(colorBold, "Active alerts:"), s.ActiveAlerts)
	fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Monthly usage:"), formatKwh(s.TotalMonthlyKwh))
	fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Average per room:"), formatKwh(s.AvgRoomKwh))
	fmt.Fprintf(w, "%s ₦%s\n", colorize(colorBold, "Estimated bill:"), humanize.CommafWithDigits(s.EstimatedBill, 2))
}

func runRooms(ctx context.Context, c *apiClient, w io.Writer) error {
	resp, err := c.get(ctx, "/admin/rooms")
	if err != nil {
		return err
	}
	var rooms []storage.Room
	if err := decodeJSON(resp, &rooms); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROOM\tBLOCK\tOCCUPANT\tNOW\tMONTH\tSTATUS")
	for _, r := range rooms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RoomNumber, r.Block, r.OccupantName,
			formatKwh(r.CurrentKwh), formatKwh(r.MonthlyKwh),
			colorize(severityColor(r.Status), r.Status))
	}
	return tw.Flush()
}

func runPowerAlerts(ctx context.Context, c *apiClient, w io.Writer) error {
	resp, err := c.get(ctx, "/admin/alerts")
	if err != nil {
		return err
	}
	var alerts []storage.PowerAlert
	if err := decodeJSON(resp, &alerts); err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(w, "No alerts.")
		return nil
	}

	for _, a := range alerts {
		mark := " "
		if a.Resolved != 0 {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %-6s %s  %s (%s)\n", mark, a.RoomNumber,
			colorize(severityColor(a.Severity), strings.ToUpper(a.Severity)), a.Message, a.CreatedAt)
	}
	return nil
}

func runDailyUsage(ctx context.Context, c *apiClient, w io.Writer) error {
	resp, err := c.get(ctx, "/admin/usage/daily")
	if err != nil {
		return err
	}
	var days []storage.DailyUsage
	if err := decodeJSON(resp, &days); err != nil {
		return err
	}

	var total float64
	for _, d := range days {
		fmt.Fprintf(w, "  %-4s %12s\n", d.Day, formatKwh(d.Kwh))
		total += d.Kwh
	}
	fmt.Fprintf(w, "  %-4s %12s\n", colorize(colorBold, "Sum"), formatKwh(total))
	return nil
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorCyan, "($"+k.EnvVar+")"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Persist a configuration value in the config file.

Secrets (API token, private key, trace API key) are read from the
environment or a .env file only and cannot be set here.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
