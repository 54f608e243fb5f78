package email

import (
	"context"
	"fmt"
	"strings"
)

// CompositeEmailSender delegates sending to multiple Senders.
type CompositeEmailSender struct {
	senders []Sender
}

// NewCompositeEmailSender creates a new CompositeEmailSender.
func NewCompositeEmailSender(senders ...Sender) *CompositeEmailSender {
	return &CompositeEmailSender{senders: senders}
}

// AddSender adds a sender to the composite sender's list.
func (cs *CompositeEmailSender) AddSender(sender Sender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

// Send calls every registered sender and aggregates their errors.
func (cs *CompositeEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(cs.senders) == 0 {
		return fmt.Errorf("no senders configured in CompositeEmailSender")
	}

	var allErrors []string
	for _, sender := range cs.senders {
		if err := sender.Send(ctx, to, subject, rawMessage); err != nil {
			allErrors = append(allErrors, err.Error())
		}
	}
	if len(allErrors) > 0 {
		return fmt.Errorf("composite email send failed: [ %s ]", strings.Join(allErrors, "; "))
	}
	return nil
}
