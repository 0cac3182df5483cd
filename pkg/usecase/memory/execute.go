package memory

import (
	"context"

	"github.com/m-mizutani/recall/pkg/tool"
)

var _ tool.Executor = (*UseCase)(nil)

// Execute dispatches a validated tool invocation
func (u *UseCase) Execute(ctx context.Context, inv *tool.Invocation) string {
	switch inv.Kind {
	case tool.KindStoreInformation:
		return u.StoreInformation(ctx, inv.Store.Topic, inv.Store.Information)
	case tool.KindRetrieveInformation:
		return u.RetrieveInformation(ctx, inv.Retrieve.Topic)
	default:
		return "Error: unknown tool kind " + inv.Kind.String()
	}
}
