package worker

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"gorm.io/gorm"

	"mailsift/config"
	"mailsift/models"
)

// failedRecipientPattern pulls the failing address out of a DSN body.
var failedRecipientPattern = regexp.MustCompile(`(?i)(?:Final-Recipient:\s*rfc822;\s*|Original-Recipient:\s*rfc822;\s*|<)([a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+)>?`)

// hardBouncePattern matches status codes and phrases that mean the address
// is permanently undeliverable.
var hardBouncePattern = regexp.MustCompile(`(?i)Status:\s*5\.\d+\.\d+|550|user unknown|no such user|mailbox unavailable|address rejected|does not exist`)

// BounceWorker polls the bounce mailbox for delivery status notifications,
// records them and suppresses hard-bounced addresses.
type BounceWorker struct {
	db     *gorm.DB
	cfg    config.BounceConfig
	logger *log.Logger
}

func NewBounceWorker(db *gorm.DB, cfg config.BounceConfig, logger *log.Logger) *BounceWorker {
	return &BounceWorker{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

func (bw *BounceWorker) Start(ctx context.Context) {
	if bw.cfg.Host == "" {
		bw.logger.Println("Bounce mailbox not configured, worker disabled")
		return
	}

	bw.logger.Println("Starting bounce worker...")
	ticker := time.NewTicker(bw.cfg.PollInterval)

	for {
		select {
		case <-ticker.C:
			if err := bw.poll(); err != nil {
				bw.logger.Printf("Bounce poll failed: %v", err)
			}
		case <-ctx.Done():
			bw.logger.Println("Stopping bounce worker...")
			ticker.Stop()
			return
		}
	}
}

func (bw *BounceWorker) poll() error {
	imapClient, err := bw.dial()
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %v", err)
	}
	defer imapClient.Logout()

	if err := imapClient.Login(bw.cfg.Username, bw.cfg.Password); err != nil {
		return fmt.Errorf("failed to login to IMAP server: %v", err)
	}

	if _, err := imapClient.Select("INBOX", false); err != nil {
		return fmt.Errorf("failed to select mailbox: %v", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{"\\Seen"}
	ids, err := imapClient.Search(criteria)
	if err != nil {
		return fmt.Errorf("failed to search messages: %v", err)
	}
	if len(ids) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)

	go func() {
		done <- imapClient.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchRFC822}, messages)
	}()

	processed := 0
	for msg := range messages {
		if err := bw.processMessage(msg); err != nil {
			bw.logger.Printf("Failed to process message %d: %v", msg.SeqNum, err)
			continue
		}
		processed++
	}

	if err := <-done; err != nil {
		return fmt.Errorf("error during fetch: %v", err)
	}

	if processed > 0 {
		bw.logger.Printf("Processed %d bounce messages", processed)
	}
	return nil
}

func (bw *BounceWorker) dial() (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", bw.cfg.Host, bw.cfg.Port)

	switch strings.ToUpper(bw.cfg.Encryption) {
	case "SSL", "TLS":
		return client.DialTLS(addr, &tls.Config{ServerName: bw.cfg.Host})
	case "STARTTLS":
		c, err := client.Dial(addr)
		if err != nil {
			return nil, err
		}
		if err := c.StartTLS(&tls.Config{ServerName: bw.cfg.Host}); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return client.Dial(addr)
	}
}

func (bw *BounceWorker) processMessage(msg *imap.Message) error {
	bounce, ok := parseBounce(msg)
	if !ok {
		// Not a DSN, leave it alone.
		return nil
	}

	if err := bw.db.Create(&bounce).Error; err != nil {
		return fmt.Errorf("failed to save bounce: %v", err)
	}

	bw.db.Model(&models.Recipient{}).Where("LOWER(email) = ?", bounce.Email).Updates(map[string]interface{}{
		"status":        "bounced",
		"status_reason": bounce.Type + " bounce",
	})

	if bounce.Type == "hard" {
		suppression := models.Suppression{
			Email:  bounce.Email,
			Reason: "bounce",
			Source: "bounce-worker",
		}
		if err := bw.db.Where("email = ?", bounce.Email).FirstOrCreate(&suppression).Error; err != nil {
			return fmt.Errorf("failed to suppress %s: %v", bounce.Email, err)
		}
	}

	return nil
}

// parseBounce extracts the failing address and bounce class from a fetched
// message. ok is false when the message is not a delivery status
// notification.
func parseBounce(msg *imap.Message) (models.Bounce, bool) {
	body := messageText(msg)
	if body == "" {
		return models.Bounce{}, false
	}

	match := failedRecipientPattern.FindStringSubmatch(body)
	if match == nil {
		return models.Bounce{}, false
	}

	bounceType := "soft"
	if hardBouncePattern.MatchString(body) {
		bounceType = "hard"
	}

	reportedAt := time.Now()
	if msg.Envelope != nil && !msg.Envelope.Date.IsZero() {
		reportedAt = msg.Envelope.Date
	}

	detail := body
	if len(detail) > 2000 {
		detail = detail[:2000]
	}

	return models.Bounce{
		Email:      strings.ToLower(match[1]),
		Type:       bounceType,
		Detail:     detail,
		ReportedAt: reportedAt,
	}, true
}

// messageText flattens the text parts of a fetched message. The body map is
// keyed by section pointers the fetch response allocated, so the section
// must be looked up by value via GetBody, never by indexing the map.
func messageText(msg *imap.Message) string {
	if msg.Body == nil {
		return ""
	}

	section := imap.BodySectionName{}
	literal := msg.GetBody(&section)
	if literal == nil {
		return ""
	}

	mr, err := mail.CreateReader(literal)
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			break
		}

		switch p.Header.(type) {
		case *mail.InlineHeader:
			b, err := io.ReadAll(p.Body)
			if err != nil {
				continue
			}
			sb.Write(b)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
