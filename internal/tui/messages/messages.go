package messages

import (
	"time"

	"imgsort/pkg/types"
)

// TickMsg asks the model to take a fresh frame snapshot.
type TickMsg time.Time

type ErrorMsg struct {
	Err error
}

// MoveCompleteMsg reports the outcome of moving tagged files.
type MoveCompleteMsg struct {
	Results []types.OrganizeResult
	Err     error
}

// RescanCompleteMsg reports the outcome of a manual rescan.
type RescanCompleteMsg struct {
	Err error
}
