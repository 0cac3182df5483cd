package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	var (
		cfg    config
		offset int64
		limit  int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Offset for pagination",
			Value:       0,
			Sources:     cli.EnvVars("RECALL_HISTORY_OFFSET"),
			Destination: &offset,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of histories to list",
			Value:       20,
			Sources:     cli.EnvVars("RECALL_HISTORY_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "history",
		Usage: "List saved conversation histories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)
			defer cfg.close()

			repo, err := cfg.newFirestore(ctx)
			if err != nil {
				return err
			}

			histories, err := repo.ListHistory(ctx, int(offset), int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to list histories")
			}

			if len(histories) == 0 {
				fmt.Fprintf(c.Root().Writer, "No conversation histories found\n")
				return nil
			}

			for _, h := range histories {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\t%s\n",
					h.ID,
					h.Title,
					h.CreatedAt.Format("2006-01-02 15:04:05"),
					h.UpdatedAt.Format("2006-01-02 15:04:05"),
				)
			}

			return nil
		},
	}
}
