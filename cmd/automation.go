package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kayz/zonal/internal/logger"
	"github.com/kayz/zonal/internal/session"
)

var (
	automationSchedule string
	automationTitle    string
)

var automationCmd = &cobra.Command{
	Use:   "automation",
	Short: "Run the automation session scheduler",
	Long: `Run scheduled AUTOMATION sessions until interrupted.

Sessions of type AUTOMATION carrying a cron schedule are re-run on that
schedule; the scheduler also re-scans storage periodically for new ones.`,
	RunE: runAutomation,
}

var automationCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a scheduled automation session",
	RunE:  runAutomationCreate,
}

func init() {
	automationCreateCmd.Flags().StringVar(&automationSchedule, "schedule", "", "Cron schedule (required)")
	automationCreateCmd.Flags().StringVar(&automationTitle, "title", "Automation", "Session title")
	automationCmd.AddCommand(automationCreateCmd)
	rootCmd.AddCommand(automationCmd)
}

func runAutomation(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime(true)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.scheduler.Start(rt.cfg.Automation.PollSchedule); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer rt.scheduler.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("automation: shutting down")
	return nil
}

func runAutomationCreate(cmd *cobra.Command, args []string) error {
	if automationSchedule == "" {
		return fmt.Errorf("--schedule is required")
	}
	rt, err := buildRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	sess, err := rt.sessions.CreateSession(session.TypeAutomation, automationTitle, automationSchedule)
	if err != nil {
		return err
	}
	fmt.Printf("created automation session %s (schedule %q)\n", sess.ID, sess.Schedule)
	fmt.Println("seed it with an instruction, e.g.:")
	fmt.Printf("  zonal chat --session %s -m \"Summarize this week's metrics\"\n", sess.ID)
	return nil
}
