package tool

import (
	"context"
)

// Kind identifies one tool of the closed memory tool set
type Kind int

const (
	KindStoreInformation Kind = iota + 1
	KindRetrieveInformation
)

const (
	NameStoreInformation    = "store_information"
	NameRetrieveInformation = "retrieve_information"
)

func (k Kind) String() string {
	switch k {
	case KindStoreInformation:
		return NameStoreInformation
	case KindRetrieveInformation:
		return NameRetrieveInformation
	default:
		return "unknown"
	}
}

// StoreArgs are the arguments of store_information
type StoreArgs struct {
	Topic       string `json:"topic"`
	Information string `json:"information"`
}

// RetrieveArgs are the arguments of retrieve_information
type RetrieveArgs struct {
	Topic string `json:"topic"`
}

// Invocation is a validated tool call. Exactly one of Store and Retrieve is
// set, matching Kind.
type Invocation struct {
	Kind     Kind
	Store    *StoreArgs
	Retrieve *RetrieveArgs
}

// Executor runs a validated invocation. Failures are reported in the
// returned text, never as an error, so the conversation can continue.
type Executor interface {
	Execute(ctx context.Context, inv *Invocation) string
}
