package worker

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hardDSN = "From: MAILER-DAEMON@mx.example.com\r\n" +
	"To: bounces@mailsift.example\r\n" +
	"Subject: Delivery Status Notification (Failure)\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"The following message could not be delivered.\r\n" +
	"Final-Recipient: rfc822; User@gone.example\r\n" +
	"Status: 5.1.1\r\n" +
	"Diagnostic-Code: smtp; 550 no such user\r\n"

const softDSN = "From: MAILER-DAEMON@mx.example.com\r\n" +
	"To: bounces@mailsift.example\r\n" +
	"Subject: Delivery Status Notification (Delayed)\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Delivery is delayed.\r\n" +
	"Final-Recipient: rfc822; user@full.example\r\n" +
	"Status: 4.2.2\r\n" +
	"Diagnostic-Code: smtp; 452 mailbox full\r\n"

const plainReply = "From: someone@example.com\r\n" +
	"To: bounces@mailsift.example\r\n" +
	"Subject: Re: your campaign\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Thanks, looks great.\r\n"

// fetchedMessage builds a message the way a fetch response does: the body
// map key is a section pointer the parser allocated, distinct from any
// pointer a consumer constructs later.
func fetchedMessage(raw string) *imap.Message {
	key := &imap.BodySectionName{}
	return &imap.Message{
		Body: map[*imap.BodySectionName]imap.Literal{
			key: bytes.NewBufferString(raw),
		},
	}
}

func TestMessageTextFindsBodySection(t *testing.T) {
	body := messageText(fetchedMessage(hardDSN))
	require.NotEmpty(t, body)
	assert.Contains(t, body, "Final-Recipient")
}

func TestMessageTextNoBody(t *testing.T) {
	assert.Empty(t, messageText(&imap.Message{}))
}

func TestParseBounceHard(t *testing.T) {
	bounce, ok := parseBounce(fetchedMessage(hardDSN))
	require.True(t, ok)

	assert.Equal(t, "user@gone.example", bounce.Email)
	assert.Equal(t, "hard", bounce.Type)
	assert.Contains(t, bounce.Detail, "550")
}

func TestParseBounceSoft(t *testing.T) {
	bounce, ok := parseBounce(fetchedMessage(softDSN))
	require.True(t, ok)

	assert.Equal(t, "user@full.example", bounce.Email)
	assert.Equal(t, "soft", bounce.Type)
}

func TestParseBounceIgnoresNonDSN(t *testing.T) {
	_, ok := parseBounce(fetchedMessage(plainReply))
	assert.False(t, ok)
}

func TestParseBounceUsesEnvelopeDate(t *testing.T) {
	reported := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	msg := fetchedMessage(hardDSN)
	msg.Envelope = &imap.Envelope{Date: reported}

	bounce, ok := parseBounce(msg)
	require.True(t, ok)
	assert.Equal(t, reported, bounce.ReportedAt)
}
