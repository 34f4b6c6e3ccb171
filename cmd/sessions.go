package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(false)
		if err != nil {
			return err
		}
		defer rt.close()

		sessions, err := rt.sessions.ListSessions()
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("no sessions")
			return nil
		}
		for _, s := range sessions {
			line := fmt.Sprintf("%s  %-10s  %s", s.ID, s.Type, s.Title)
			if s.Schedule != "" {
				line += fmt.Sprintf("  [%s]", s.Schedule)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(false)
		if err != nil {
			return err
		}
		defer rt.close()

		if _, err := rt.sessions.GetSession(args[0]); err != nil {
			return fmt.Errorf("session %s not found", args[0])
		}
		if err := rt.sessions.DeleteSession(args[0]); err != nil {
			return err
		}
		fmt.Println("deleted", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}
