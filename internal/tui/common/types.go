package common

import (
	"imgsort/internal/session"
	"imgsort/pkg/types"
)

// Source is the session surface the viewer drives. *session.Session
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
