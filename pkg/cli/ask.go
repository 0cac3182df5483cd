package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, memoryFlags(&cfg)...)
	flags = append(flags, agentFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Send a single message and print the answer",
		ArgsUsage: "<message>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return goerr.New("message is required")
			}
			message := strings.Join(c.Args().Slice(), " ")

			ctx = cfg.setup(ctx)
			defer cfg.close()

			uc, err := cfg.newChat(ctx)
			if err != nil {
				return err
			}

			answer, err := uc.Chatbot(ctx, []model.Turn{
				{Role: model.RoleUser, Content: message},
			})
			if err != nil {
				return goerr.Wrap(err, "failed to get answer")
			}

			fmt.Fprintln(c.Root().Writer, answer)
			return nil
		},
	}
}
