package onboarding

import (
	"crypto/rand"
	"fmt"
)

const (
	backupCodeCount   = 8
	backupCodeLength  = 6
	backupCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateBackupCodes produces the user's one-time backup codes:
// 8 codes of 6 uppercase alphanumeric characters each. The codes are
// random, not derived from anything, so they cannot be regenerated.
func GenerateBackupCodes() ([]string, error) {
	codes := make([]string, 0, backupCodeCount)
	for i := 0; i < backupCodeCount; i++ {
		buf := make([]byte, backupCodeLength)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("reading random bytes: %w", err)
		}
		for j, b := range buf {
			buf[j] = backupCodeCharset[int(b)%len(backupCodeCharset)]
		}
		codes = append(codes, string(buf))
	}
	return codes, nil
}
