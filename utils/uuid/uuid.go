package uuid

import (
	"strings"

	"github.com/google/uuid"
)

// GenUUID16 生成16位的短uuid，用于requestId等
func GenUUID16() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:16]
}

// GenUUID 生成标准uuid
func GenUUID() string {
	return uuid.NewString()
}
