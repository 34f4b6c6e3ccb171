package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kayz/zonal/internal/session"
)

var (
	chatSessionID string
	chatOnce      string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run a chat session",
	Long: `Run a chat session against the configured AI provider.

With --message, runs a single turn and exits. Without it, starts an
interactive loop; exit with "quit" or Ctrl-D. A new CHAT session is created
unless --session selects an existing one.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "Existing session id to continue")
	chatCmd.Flags().StringVarP(&chatOnce, "message", "m", "", "Send one message and exit")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime(true)
	if err != nil {
		return err
	}
	defer rt.close()

	sessionID := chatSessionID
	if sessionID == "" {
		sess, err := rt.sessions.CreateSession(session.TypeChat, "CLI chat", "")
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		sessionID = sess.ID
		fmt.Printf("session: %s\n", sessionID)
	}

	ctx := cmd.Context()
	if chatOnce != "" {
		return chatTurn(ctx, rt, sessionID, chatOnce)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			return nil
		}
		if err := chatTurn(ctx, rt, sessionID, input); err != nil {
			return err
		}
	}
}

func chatTurn(ctx context.Context, rt *runtime, sessionID, input string) error {
	result, err := rt.orchestrator.Turn(ctx, sessionID, input)
	if err != nil {
		return err
	}
	if !result.Usage.Success {
		fmt.Println("(the AI service could not be reached, try again)")
		return nil
	}
	if result.Reply != "" {
		fmt.Println(result.Reply)
	}
	for _, r := range result.Results {
		if r.SystemMessage != "" {
			fmt.Printf("  · %s\n", r.SystemMessage)
		}
	}
	return nil
}
