package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRejectsMalformedMessages(t *testing.T) {
	cases := []struct {
		name string
		msg  *IncomingMessage
		want error
	}{
		{"nil message", nil, ErrInvalidFormat},
		{"missing user", &IncomingMessage{Text: "hi"}, ErrUserRequired},
		{"blank user", &IncomingMessage{User: "   ", Text: "hi"}, ErrUserRequired},
		{"missing text", &IncomingMessage{User: "alice"}, ErrTextRequired},
		{"blank text", &IncomingMessage{User: "alice", Text: "\t\n"}, ErrTextRequired},
		{"text too long", &IncomingMessage{User: "alice", Text: strings.Repeat("あ", 501)}, ErrTextTooLong},
		{"user too long", &IncomingMessage{User: strings.Repeat("x", 51), Text: "hi"}, ErrUserTooLong},
		{"banned word", &IncomingMessage{User: "alice", Text: "this is SPAM"}, ErrBannedContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tc.msg), tc.want)
		})
	}
}

func TestValidateAcceptsBoundaryLengths(t *testing.T) {
	assert.NoError(t, Validate(&IncomingMessage{
		User: strings.Repeat("x", 50),
		Text: strings.Repeat("あ", 500),
	}))
}

func TestSanitizeStripsMarkup(t *testing.T) {
	clean := Sanitize(&IncomingMessage{
		User: "<b>alice</b>",
		Text: `hello <b>world</b> & "friends"`,
		ID:   "msg-1",
	})
	assert.Equal(t, "alice", clean.User)
	assert.NotContains(t, clean.Text, "<")
	assert.Contains(t, clean.Text, "&amp;")
	assert.Contains(t, clean.Text, "&quot;friends&quot;")
	assert.Equal(t, "msg-1", clean.ID)
}
