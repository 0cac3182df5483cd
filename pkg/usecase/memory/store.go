package memory

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/utils/logging"
)

var errFalseInformation = goerr.New("False information")

// StoreInformation saves information about topic if the verification gate
// approves it. The result is always a text for the model, never an error.
func (u *UseCase) StoreInformation(ctx context.Context, topic, information string) string {
	memory, err := u.storeInformation(ctx, topic, information)
	if err != nil {
		logging.From(ctx).Warn("information not stored", "topic", topic, "error", err)
		return fmt.Sprintf("Unable to save information: %s", err.Error())
	}

	logging.From(ctx).Info("information stored", "topic", topic, "id", memory.ID)
	return fmt.Sprintf("Information stored for topic: %s for future reference", topic)
}

func (u *UseCase) storeInformation(ctx context.Context, topic, information string) (*model.Memory, error) {
	ok, err := u.Verify(ctx, topic, information)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errFalseInformation
	}

	vector, err := u.embedder.Embed(ctx, information)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed information")
	}

	memory := &model.Memory{
		ID:          model.NewMemoryID(),
		Topic:       topic,
		Information: information,
		Embedding:   vector,
		CreatedAt:   u.now(),
	}
	if err := u.store.PutMemory(ctx, memory); err != nil {
		return nil, goerr.Wrap(err, "failed to put memory")
	}

	return memory, nil
}
