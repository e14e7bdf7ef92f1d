package domain

import "errors"

var (
	ErrRoomFull       = errors.New("this room is full")
	ErrRoomNotFound   = errors.New("room does not exist")
	ErrInvalidMapData = errors.New("illegal map data found")
	ErrNotInRoom      = errors.New("not a member of this room")
	ErrPeerTaken      = errors.New("peer id already registered")
)
