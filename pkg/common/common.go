package common

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a snowflake id, the primary key type used across the schema.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID returns the string form of a snowflake id.
func UUID() string {
	return snowflakeNode.Generate().String()
}

func Sha256Hash(src string) string {
	h := sha256.New()
	h.Write([]byte(src))
	return fmt.Sprintf("%x", h.Sum(nil))
}

func Sha256HashWithSalt(src string, salt string) string {
	return Sha256Hash(src + salt)
}

// GetSecretSalt reads the password salt from the environment; callers fall
// back to a fixed value so a missing variable never locks out the admin.
func GetSecretSalt() string {
	salt := os.Getenv("DIALOGIX_SECRET_SALT")
	if salt == "" {
		salt = "dialogix"
	}
	return salt
}

// ReadSecretFile returns the trimmed content of a mounted secret file,
// or empty when the file is absent or unreadable.
func ReadSecretFile(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// MaskToken shortens a bearer token for audit logs.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// TrimLower normalizes free-text status values for comparison.
func TrimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
