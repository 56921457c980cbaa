package video

import "errors"

var (
	// ErrVideoNotFound signals that the video does not exist or belongs to someone else.
	ErrVideoNotFound = errors.New("video not found")
	// ErrUnknownUser is returned when uploading for an unregistered user.
	ErrUnknownUser = errors.New("unknown user")
	// ErrMissingUserID is returned when a request carries no user id.
	ErrMissingUserID = errors.New("userId is required")
	// ErrMissingFile is returned when an upload carries no video part.
	ErrMissingFile = errors.New("video file is required")
	// ErrNotVideo is returned for uploads whose content type is not video/*.
	ErrNotVideo = errors.New("only video files are allowed")
	// ErrFileTooLarge signals that the upload exceeds configured limits.
	ErrFileTooLarge = errors.New("file too large")
	// ErrDuplicateKey is returned when a storage key is already recorded.
	ErrDuplicateKey = errors.New("video key already recorded")
)
