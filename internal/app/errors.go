package service

import "errors"

// Rejections of user input. No event is produced for a rejected action.
var (
	ErrEmptyName         = errors.New("name must not be empty")
	ErrEmptyAvatar       = errors.New("avatar must not be empty")
	ErrNothingToPenalize = errors.New("no active stamps to penalize")
	ErrNothingToUndo     = errors.New("history is empty")
	ErrUndoNotStamp      = errors.New("latest record is not a stamp")
	ErrNothingToRedeem   = errors.New("no stamps to redeem")
)

// Service errors.
var (
	ErrNoLogClient = errors.New("no log client configured")
	ErrSync        = errors.New("sync failed")
)
