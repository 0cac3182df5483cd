package chat

import (
	"context"
	"encoding/json"
	"io"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
)

var errHistoryDisabled = goerr.New("history persistence is not configured")

const maxTitleLength = 64

func historyKey(id model.HistoryID) string {
	return "histories/" + string(id) + ".json"
}

// LoadHistory loads caller turns from Cloud Storage and metadata from the repository
func (u *UseCase) LoadHistory(ctx context.Context, historyID model.HistoryID) (*model.History, error) {
	if u.repo == nil || u.storage == nil {
		return nil, errHistoryDisabled
	}

	history, err := u.repo.GetHistory(ctx, historyID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get history from repository")
	}

	reader, err := u.storage.Get(ctx, historyKey(historyID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get history from storage")
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read history data")
	}

	var turns []model.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal history turns", goerr.V("id", historyID))
	}

	history.Turns = turns
	return history, nil
}

// SaveHistory writes turns to Cloud Storage and metadata to the repository.
// A history without ID gets a new one titled after its first user turn.
func (u *UseCase) SaveHistory(ctx context.Context, history *model.History) error {
	if u.repo == nil || u.storage == nil {
		return errHistoryDisabled
	}

	now := time.Now()
	if history.ID == "" {
		history.ID = model.NewHistoryID()
		history.CreatedAt = now
	}
	if history.Title == "" {
		history.Title = titleOf(history.Turns)
	}
	history.UpdatedAt = now

	writer, err := u.storage.Put(ctx, historyKey(history.ID))
	if err != nil {
		return goerr.Wrap(err, "failed to create storage writer")
	}

	if err := json.NewEncoder(writer).Encode(history.Turns); err != nil {
		_ = writer.Close()
		return goerr.Wrap(err, "failed to write history to storage", goerr.V("id", history.ID))
	}

	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage writer", goerr.V("id", history.ID))
	}

	if err := u.repo.PutHistory(ctx, history); err != nil {
		return goerr.Wrap(err, "failed to put history to repository")
	}

	return nil
}

func titleOf(turns []model.Turn) string {
	for _, turn := range turns {
		if turn.Role != model.RoleUser {
			continue
		}
		title := turn.Content
		if utf8.RuneCountInString(title) > maxTitleLength {
			title = string([]rune(title)[:maxTitleLength]) + "..."
		}
		return title
	}
	return "untitled"
}
