package ports

// Frontend is a long-running surface that feeds submissions into the
// session's SubmissionController
type Frontend interface {
	// Name identifies the frontend in logs
	Name() string

	// Start starts serving; it returns once the listener is bound
	Start() error

	// Stop stops the frontend service
	Stop() error
}
