package repository

// Common repository errors
var (
	ErrNotFound = &RepositoryError{Code: "NOT_FOUND", Message: "entity not found"}
)

// RepositoryError represents a repository error.
type RepositoryError struct {
	Code    string
	Message string
}

func (e *RepositoryError) Error() string {
	return e.Code + ": " + e.Message
}
