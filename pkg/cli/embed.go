package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/service/embedding"
	"github.com/urfave/cli/v3"
)

func embedCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, memoryFlags(&cfg)...)

	return &cli.Command{
		Name:      "embed",
		Usage:     "Print embedding dimensions and pairwise cosine similarity",
		ArgsUsage: "<text> [text...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			texts := c.Args().Slice()
			if len(texts) == 0 {
				return goerr.New("at least one text is required")
			}

			ctx = cfg.setup(ctx)
			defer cfg.close()

			embedder, err := cfg.newEmbedder(ctx)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			vectors := make([][]float32, len(texts))
			for i, text := range texts {
				vec, err := embedder.Embed(ctx, text)
				if err != nil {
					return goerr.Wrap(err, "failed to embed text", goerr.V("text", text))
				}
				vectors[i] = vec
				fmt.Fprintf(w, "[%d] %q dimensions=%d\n", i, text, len(vec))
			}

			if len(texts) < 2 {
				return nil
			}

			fmt.Fprintf(w, "\nCosine similarity (score = similarity + 1.0):\n")
			for i := range vectors {
				for j := i + 1; j < len(vectors); j++ {
					sim := embedding.Cosine(vectors[i], vectors[j])
					fmt.Fprintf(w, "[%d]-[%d] %.4f (score: %.2f)\n", i, j, sim, sim+1.0)
				}
			}
			return nil
		},
	}
}
