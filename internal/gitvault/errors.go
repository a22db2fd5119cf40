package gitvault

import "errors"

var (
	ErrNoRepoURL   = errors.New("repository URL is required")
	ErrNoLocalPath = errors.New("local path is required")
	ErrNoBranch    = errors.New("branch is required")

	ErrRepoNotFound = errors.New("repository not found")
	ErrCloneFailed  = errors.New("failed to clone repository")
	ErrPullFailed   = errors.New("failed to pull updates")

	ErrSyncInProgress = errors.New("sync already in progress")
)
