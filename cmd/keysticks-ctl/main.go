package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ============================================================================
// keysticks-ctl - Command-line IPC Client
// ============================================================================
// Sends events to the keysticks daemon over its Unix domain socket.
//
// Usage:
//   keysticks-ctl profile typing
//   keysticks-ctl state 1 2:1:104
//   keysticks-ctl text "hello"
//   keysticks-ctl repeat-key backspace 3
//   keysticks-ctl predict next_suggestion
//   keysticks-ctl start firefox --new-window
//   keysticks-ctl toggle-controls
//   keysticks-ctl languages
// ============================================================================

// Event payloads (duplicated from the daemon for a standalone binary)
type StateChange struct {
	Player int    `json:"player"`
	State  string `json:"state"`
}

type LoadProfile struct {
	Name string `json:"name"`
}

type Text struct {
	Text string `json:"text"`
}

type RepeatKey struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Prediction struct {
	Kind string `json:"kind"`
}

type StartProgram struct {
	Program string   `json:"program"`
	Args    []string `json:"args,omitempty"`
}

// EventEnvelope wraps events for JSON
type EventEnvelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var socketPath string

	root := &cobra.Command{
		Use:           "keysticks-ctl",
		Short:         "Control the keysticks daemon via IPC",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&socketPath, "socket", "/tmp/keysticks.sock", "Unix domain socket path")

	send := func(cmd *cobra.Command, typ string, payload any) error {
		if err := sendEvent(socketPath, typ, payload); err != nil {
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return err
	}

	root.AddCommand(&cobra.Command{
		Use:   "profile <name|path>",
		Short: "Load a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, "load_profile", LoadProfile{Name: args[0]})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "state <player> <state>",
		Short: "Change a player's state, e.g. 1:2:104 or next",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid player %q: %w", args[0], err)
			}
			return send(cmd, "state_change", StateChange{Player: player, State: args[1]})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "text <text>",
		Short: "Type text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, "text", Text{Text: strings.Join(args, " ")})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "repeat-key <key> [count]",
		Short: "Stroke a key count times",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid count %q", args[1])
				}
				count = n
			}
			return send(cmd, "repeat_key", RepeatKey{Key: args[0], Count: count})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "predict <enable|disable|next_suggestion|previous_suggestion|insert_suggestion|cancel_suggestions>",
		Short: "Send a word prediction command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, "word_prediction", Prediction{Kind: args[0]})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "start <program> [args...]",
		Short: "Start a program",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, "start_program", StartProgram{Program: args[0], Args: args[1:]})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "toggle-controls",
		Short: "Show or hide the controls overlay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, "toggle_controls", nil)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "languages",
		Short: "Tell the prediction service the installed languages changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, "language_packages", nil)
		},
	})

	return root
}

func sendEvent(socketPath, typ string, payload any) error {
	env := EventEnvelope{ID: uuid.NewString(), Type: typ}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		env.Data = data
	}
	line, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	// Send event (line-delimited JSON)
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		return fmt.Errorf("send event: %w", err)
	}

	var response IPCResponse
	if err := json.NewDecoder(conn).Decode(&response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if response.Status == "error" {
		return fmt.Errorf("daemon error: %s", response.Error)
	}
	return nil
}
