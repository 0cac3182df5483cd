package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/utils/logging"
)

// RetrieveInformation returns stored information relevant to topic, one
// line per memory in store order with its score.
func (u *UseCase) RetrieveInformation(ctx context.Context, topic string) string {
	hits, err := u.Search(ctx, topic)
	if err != nil {
		logging.From(ctx).Warn("failed to retrieve information", "topic", topic, "error", err)
		return fmt.Sprintf("Error recovering information: %s", err.Error())
	}

	if len(hits) == 0 {
		return fmt.Sprintf("No relevant information was found for the topic: %s", topic)
	}

	lines := make([]string, len(hits))
	for i, hit := range hits {
		lines[i] = fmt.Sprintf("%s (score: %.2f)", hit.Memory.Information, hit.Score)
	}
	return strings.Join(lines, "\n")
}

// Search returns memories relevant to topic ordered by descending score
func (u *UseCase) Search(ctx context.Context, topic string) ([]*model.ScoredMemory, error) {
	vector, err := u.embedder.Embed(ctx, topic)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed topic")
	}

	hits, err := u.store.SearchMemories(ctx, vector, u.searchLimit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memories", goerr.V("limit", u.searchLimit))
	}

	logging.From(ctx).Debug("memories found", "topic", topic, "count", len(hits))
	return hits, nil
}
