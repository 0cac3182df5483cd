package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg       config
		historyID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "history-id",
			Usage:       "Resume a saved conversation (requires --history-bucket)",
			Sources:     cli.EnvVars("RECALL_HISTORY_ID"),
			Destination: &historyID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, memoryFlags(&cfg)...)
	flags = append(flags, agentFlags(&cfg)...)
	flags = append(flags, historyFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive conversation with long-term memory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)
			defer cfg.close()

			if historyID != "" && cfg.historyBucket == "" {
				return goerr.New("history-bucket is required to resume a history")
			}

			uc, err := cfg.newChat(ctx)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			history := &model.History{}
			if historyID != "" {
				history, err = uc.LoadHistory(ctx, model.HistoryID(historyID))
				if err != nil {
					return goerr.Wrap(err, "failed to load history", goerr.V("history_id", historyID))
				}
				fmt.Fprintf(w, "Resumed %s (%d turns)\n", history.Title, len(history.Turns))
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			fmt.Fprintf(w, "Chat session started. Type 'exit' to quit.\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						break
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "exit" {
					break
				}
				if message == "" {
					continue
				}

				turns := append(history.Turns, model.Turn{Role: model.RoleUser, Content: message})

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
				sp.Suffix = " thinking..."
				sp.Start()
				answer, err := uc.Chatbot(ctx, turns)
				sp.Stop()

				if err != nil {
					// The failed turn is dropped so the user can retry
					logging.From(ctx).Error("failed to get answer", "error", err)
					fmt.Fprintf(w, "Error: %s\n", err.Error())
					continue
				}

				fmt.Fprintf(w, "%s\n", answer)
				history.Turns = append(turns, model.Turn{Role: model.RoleAssistant, Content: answer})

				if cfg.historyBucket != "" {
					if err := uc.SaveHistory(ctx, history); err != nil {
						logging.From(ctx).Error("failed to save history", "error", err)
					}
				}
			}

			if history.ID != "" {
				fmt.Fprintf(w, "\nChat session saved as %s\n", history.ID)
			} else {
				fmt.Fprintf(w, "\nChat session completed\n")
			}
			return nil
		},
	}
}
