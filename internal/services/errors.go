package services

import "errors"

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrNotMember       = errors.New("user is not a member of the group")
	ErrNotAdmin        = errors.New("user is not the group admin")
	ErrItemNotOwned    = errors.New("item does not belong to the caller")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)
