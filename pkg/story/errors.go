package story

import "errors"

var (
	ErrNotAStoryRepo    = errors.New("not a story repository")
	ErrAlreadyBegun     = errors.New("a story has already begun in this directory")
	ErrNoFilesToSave    = errors.New("no files to save")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrLogMissing       = errors.New("log.json not found")
)
