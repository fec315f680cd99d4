// Package share builds the chat handoff for an exported receipt
package share

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/thereceipt/quickreceipt/internal/money"
	"go.uber.org/zap"
)

const (
	// CompanyPlaceholder stands in for an empty company name
	CompanyPlaceholder = "our company"
	// DefaultLinkTemplate takes the encoded message as its only verb
	DefaultLinkTemplate = "https://wa.me/?text=%s"
	// MsgAttach tells the user to attach the file by hand
	MsgAttach = "PDF Downloaded! Please attach it to your WhatsApp message."
)

// ComposeMessage builds the greeting sent alongside the receipt
func ComposeMessage(companyName, customerName string, total float64, currency string) string {
	company := strings.TrimSpace(companyName)
	if company == "" {
		company = CompanyPlaceholder
	}

	greeting := "Hello,"
	if name := strings.TrimSpace(customerName); name != "" {
		greeting = "Hello " + name + ","
	}

	return fmt.Sprintf("%s here is your receipt for %s from %s. Please find the attached PDF.",
		greeting, money.Format(total, currency), company)
}

var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent escapes s like the browser function of the same name
func EncodeURIComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}

// BuildLink places the encoded message into the link template
func BuildLink(template, message string) string {
	if template == "" {
		template = DefaultLinkTemplate
	}
	return fmt.Sprintf(template, EncodeURIComponent(message))
}

// Notifier shows a transient user-facing message
type Notifier interface {
	Set(message string)
}

// Handoff is the result of one share
type Handoff struct {
	URL      string `json:"url"`
	Message  string `json:"message"`
	FileName string `json:"file_name"`
}

// Composer opens the share link and tells the user what to do next
type Composer struct {
	template string
	opener   Opener
	notifier Notifier
	logger   *zap.Logger
}

// NewComposer creates a composer
func NewComposer(template string, opener Opener, notifier Notifier, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opener == nil {
		opener = NewLogOpener(logger)
	}
	if template == "" {
		template = DefaultLinkTemplate
	}
	return &Composer{template: template, opener: opener, notifier: notifier, logger: logger}
}

// Share hands message off to the external target for the saved file
func (c *Composer) Share(ctx context.Context, message, fileName string) (*Handoff, error) {
	link := BuildLink(c.template, message)

	if err := c.opener.Open(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to open share link: %w", err)
	}

	c.logger.Info("Share link opened", zap.String("file", fileName))
	if c.notifier != nil {
		c.notifier.Set(MsgAttach)
	}

	return &Handoff{URL: link, Message: message, FileName: fileName}, nil
}
