// Package notify holds Notifier implementations. Delivery transports
// (SMTP, SMS gateways) are outside this module; LogNotifier stands in for
// them during development and in tests.
package notify

import (
	"context"
	"sync"

	"github.com/MrEthical07/authservice/account"
	"go.uber.org/zap"
)

// LogNotifier writes each message to a zap logger instead of sending it.
// The body is logged verbatim, so never use it where logs leave the host.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Send(_ context.Context, recipient account.Email, subject, body string) error {
	n.logger.Info("mock email sent",
		zap.String("to", recipient.String()),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// Message is one captured notification.
type Message struct {
	Recipient account.Email
	Subject   string
	Body      string
}

// Recorder keeps every message in memory. Tests read the 2FA code from it.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

func NewRecorder() *Recorder { return &Recorder{} }

// FailWith makes subsequent Send calls return err without recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Send(_ context.Context, recipient account.Email, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, Message{Recipient: recipient, Subject: subject, Body: body})
	return nil
}

// Last returns the most recent message for recipient.
func (r *Recorder) Last(recipient account.Email) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].Recipient == recipient {
			return r.messages[i], true
		}
	}
	return Message{}, false
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}
