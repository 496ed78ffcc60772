package logging

import "github.com/google/uuid"

// GenerateRequestID generates a unique request ID for a client connection.
func GenerateRequestID() string {
	return uuid.NewString()
}
