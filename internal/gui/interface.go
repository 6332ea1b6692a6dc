package gui

import (
	"imgsort/internal/session"
	"imgsort/pkg/types"
)

// Interface defines the contract for GUI operations
type Interface interface {
	Run()
	ShowError(message string, err error)
	ShowInfo(message string)
}

// Source is the session surface the window drives. *session.Session
// implements it.
type Source interface {
	Frame() session.Frame
	Dir() string
	Next() (int, bool)
	Prev() (int, bool)
	First() (int, bool)
	Last() (int, bool)
	Tag(tag types.Tag) error
	Untag() error
	Retry() error
	Rescan() error
	MoveAllTagged() ([]types.OrganizeResult, error)
}
