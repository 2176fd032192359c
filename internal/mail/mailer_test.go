// AngelaMos | 2026
// mailer_test.go

package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/dentflow/internal/config"
)

func TestNewPicksSender(t *testing.T) {
	_, ok := New(config.MailConfig{}, nil).(*LogSender)
	assert.True(t, ok)

	_, ok = New(config.MailConfig{Host: "smtp.example.com", Port: 587}, nil).(*SMTPSender)
	assert.True(t, ok)
}

func TestBuildMessageStripsHeaderInjection(t *testing.T) {
	raw := string(buildMessage("no-reply@dentflow.local", Message{
		To:      "dr@clinic.com\r\nBcc: evil@example.com",
		Subject: "Invite\nX-Injected: 1",
		Body:    "hello",
	}))

	assert.Contains(t, raw, "To: dr@clinic.comBcc: evil@example.com\r\n")
	assert.Contains(t, raw, "Subject: InviteX-Injected: 1\r\n")
	assert.NotContains(t, raw, "\r\nBcc:")
	assert.True(t, len(raw) > 0 && raw[len(raw)-5:] == "hello")
}

func TestLogSenderNeverFails(t *testing.T) {
	require.NoError(t, (&LogSender{}).Send(context.Background(), Message{To: "a@b.c"}))
}
