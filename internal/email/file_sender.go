package email

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileEmailSender appends sent emails to a local log file. Handy when
// developing the activation flow without an SMTP relay.
type FileEmailSender struct {
	path string
}

// NewFileEmailSender builds a file-backed sender, creating the parent
// directory of the log file when needed.
func NewFileEmailSender(path string) (Sender, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("email log file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create email log directory: %w", err)
	}
	return &FileEmailSender{path: path}, nil
}

// Send appends a framed copy of the message to the log file.
func (s *FileEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open email log file: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "--- email at %s (to: %v, subject: %s) ---\n%s--- end email ---\n\n",
		time.Now().Format(time.RFC3339Nano), to, subject, rawMessage); err != nil {
		return fmt.Errorf("failed to write email to log file: %w", err)
	}

	log.Printf("Email to %v (subject: %s) logged to %s", to, subject, s.path)
	return nil
}
