package chat

import (
	"errors"
	"strings"

	"github.com/sure-link/core/internal/pkg/sanitize"
)

const (
	maxTextLen = 500
	maxUserLen = 50
)

// Validation failures carry user-facing (Japanese) messages; they are sent
// back to the offending connection as-is.
var (
	ErrInvalidFormat = errors.New("無効なメッセージ形式です")
	ErrUserRequired  = errors.New("ニックネームが必要です")
	ErrTextRequired  = errors.New("メッセージが必要です")
	ErrTextTooLong   = errors.New("メッセージは500文字以内にしてください")
	ErrUserTooLong   = errors.New("ニックネームは50文字以内にしてください")
	ErrBannedContent = errors.New("不適切な内容が含まれています")
	ErrRateLimited   = errors.New("メッセージ送信が速すぎます。少しお待ちください。")
)

var bannedWords = []string{"spam", "abuse", "hack"}

// IncomingMessage is the raw chatMessage payload from a client.
type IncomingMessage struct {
	User string `json:"user"`
	Text string `json:"text"`
	ID   string `json:"id,omitempty"`
}

// CleanMessage is a validated, sanitized message ready for broadcast and
// persistence.
type CleanMessage struct {
	User string `json:"user"`
	Text string `json:"text"`
	ID   string `json:"id,omitempty"`
}

// Validate checks an incoming message and returns the first violation.
func Validate(msg *IncomingMessage) error {
	if msg == nil {
		return ErrInvalidFormat
	}
	if strings.TrimSpace(msg.User) == "" {
		return ErrUserRequired
	}
	if strings.TrimSpace(msg.Text) == "" {
		return ErrTextRequired
	}
	if len([]rune(msg.Text)) > maxTextLen {
		return ErrTextTooLong
	}
	if len([]rune(msg.User)) > maxUserLen {
		return ErrUserTooLong
	}

	lower := strings.ToLower(msg.Text)
	for _, word := range bannedWords {
		if strings.Contains(lower, word) {
			return ErrBannedContent
		}
	}
	return nil
}

// Sanitize strips markup from a validated message.
func Sanitize(msg *IncomingMessage) CleanMessage {
	return CleanMessage{
		User: sanitize.String(msg.User),
		Text: sanitize.String(msg.Text),
		ID:   msg.ID,
	}
}
