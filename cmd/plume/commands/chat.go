package commands

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/plumechat/plume/pkg/chat"
	"github.com/plumechat/plume/pkg/relay"
)

var (
	chatSystem   string
	chatModel    string
	chatComplete bool
)

var (
	youStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	botStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the configured provider",
	Long: `Send a message and stream the reply, or start an interactive session.

With a message argument, sends it as a one-shot request and prints the
reply as it streams. Without arguments, starts an interactive session
that keeps conversation history until EOF (Ctrl-D).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		opts := cfg.Options()
		if chatModel != "" {
			opts.Model = chatModel
		}
		if chatSystem != "" {
			opts.SystemInstruction = chatSystem
		}

		provider, err := cfg.BuildProvider(cmd.Context())
		if err != nil {
			return err
		}
		r := relay.New(provider)

		if len(args) == 1 {
			return oneShot(cmd, r, opts, args[0])
		}
		return interactive(cmd, r, opts)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatSystem, "system", "s", "", "system instruction (overrides config)")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "model name (overrides config)")
	chatCmd.Flags().BoolVar(&chatComplete, "complete", false, "wait for the full reply instead of streaming")

	rootCmd.AddCommand(chatCmd)
}

func oneShot(cmd *cobra.Command, r *relay.Relay, opts *chat.GenerationOptions, message string) error {
	t := chat.Transcript{}.Append(chat.NewTurn(chat.RoleUser, message))

	if chatComplete {
		text, err := r.GenerateComplete(cmd.Context(), t, opts)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}

	_, err := streamReply(cmd, r, t, opts)
	return err
}

func interactive(cmd *cobra.Command, r *relay.Relay, opts *chat.GenerationOptions) error {
	fmt.Println(dimStyle.Render("interactive session; Ctrl-D to exit"))

	var t chat.Transcript
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(youStyle.Render("you") + " > ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		next := t.Append(chat.NewTurn(chat.RoleUser, line))
		reply, err := streamReply(cmd, r, next, opts)
		if err != nil {
			// The partial text stays on screen, but a failed turn is not
			// carried into history: the next request starts from the last
			// good state.
			fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf("error: %v", err)))
			continue
		}
		t = next.Append(reply)
	}
}

// streamReply opens a stream, prints fragments as they arrive, and returns
// the accumulated assistant turn.
func streamReply(cmd *cobra.Command, r *relay.Relay, t chat.Transcript, opts *chat.GenerationOptions) (*chat.Turn, error) {
	str, err := r.OpenStream(cmd.Context(), t, opts)
	if err != nil {
		return nil, err
	}
	defer str.Close()

	fmt.Print(botStyle.Render("assistant") + " > ")
	acc := chat.NewAccumulator()
	for {
		frag, err := str.Next()
		if err != nil {
			fmt.Println()
			return finishReply(acc, err)
		}
		acc.Push(frag)
		fmt.Print(frag)
	}
}

// finishReply inspects the terminal stream error. Done and Truncated keep
// the accumulated turn; anything else discards it.
func finishReply(acc *chat.Accumulator, err error) (*chat.Turn, error) {
	var state *relay.State
	if !errors.As(err, &state) {
		return nil, err
	}
	if IsVerbose() {
		fmt.Fprint(os.Stderr, dimStyle.Render(state.Usage().String()))
	}
	switch state.Status() {
	case relay.StatusDone:
		return acc.Turn(), nil
	case relay.StatusTruncated:
		slog.Warn("reply truncated at the output token limit")
		return acc.Turn(), nil
	default:
		return nil, err
	}
}
