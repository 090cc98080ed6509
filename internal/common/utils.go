package common

import (
	"github.com/google/uuid"
)

const (
	// Queue constants
	DefaultQueueCapacity = 64

	// File operation constants
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// GenerateUUID generates a new UUID string
func GenerateUUID() string {
	return uuid.New().String()
}
