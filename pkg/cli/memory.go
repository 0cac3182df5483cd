package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func topicFlag(topic *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "topic",
		Aliases:     []string{"t"},
		Usage:       "Topic of the information",
		Destination: topic,
		Required:    true,
	}
}

func informationFlag(information *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "information",
		Aliases:     []string{"i"},
		Usage:       "Information to verify or store",
		Destination: information,
		Required:    true,
	}
}

func storeCommand() *cli.Command {
	var (
		cfg         config
		topic       string
		information string
	)

	flags := []cli.Flag{topicFlag(&topic), informationFlag(&information)}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, memoryFlags(&cfg)...)

	return &cli.Command{
		Name:  "store",
		Usage: "Verify and store a piece of information",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)
			defer cfg.close()

			chatModel, err := cfg.newLLM(ctx)
			if err != nil {
				return err
			}
			uc, err := cfg.newMemory(ctx, chatModel)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, uc.StoreInformation(ctx, topic, information))
			return nil
		},
	}
}

func retrieveCommand() *cli.Command {
	var (
		cfg   config
		topic string
	)

	flags := []cli.Flag{topicFlag(&topic)}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, memoryFlags(&cfg)...)

	return &cli.Command{
		Name:  "retrieve",
		Usage: "Search stored information for a topic",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)
			defer cfg.close()

			// Retrieval never calls the model
			uc, err := cfg.newMemory(ctx, nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, uc.RetrieveInformation(ctx, topic))
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	var (
		cfg         config
		topic       string
		information string
	)

	flags := []cli.Flag{topicFlag(&topic), informationFlag(&information)}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, memoryFlags(&cfg)...)

	return &cli.Command{
		Name:  "verify",
		Usage: "Run the verification gate without storing",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)
			defer cfg.close()

			chatModel, err := cfg.newLLM(ctx)
			if err != nil {
				return err
			}
			uc, err := cfg.newMemory(ctx, chatModel)
			if err != nil {
				return err
			}

			ok, err := uc.Verify(ctx, topic, information)
			if err != nil {
				return goerr.Wrap(err, "failed to verify information")
			}

			fmt.Fprintln(c.Root().Writer, ok)
			return nil
		},
	}
}
