package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileEmailSender appends every email to a local file. Useful during
// development to inspect what would have been sent.
type FileEmailSender struct {
	filePath string
}

// NewFileEmailSender creates a FileEmailSender, creating the directory for the
// log file if needed.
func NewFileEmailSender(filePath string) (Sender, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("email log file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for email log file: %w", err)
	}
	return &FileEmailSender{filePath: filePath}, nil
}

// Send appends the raw message to the log file.
func (s *FileEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	file, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open email log file: %w", err)
	}
	defer file.Close()

	entry := fmt.Sprintf("--- Email logged at %s (To: %v, Subject: %s) ---\n%s\n--- End ---\n\n",
		time.Now().Format(time.RFC3339), to, subject, rawMessage)
	if _, err := file.WriteString(entry); err != nil {
		return fmt.Errorf("failed to write email log entry: %w", err)
	}
	return nil
}
