// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"returns-insights/internal/common/config"
	commonerrors "returns-insights/internal/common/errors"
	"returns-insights/internal/common/logger"
	"returns-insights/internal/models"
)

// EmailSender is the SES surface the notifier needs.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SMSSender is the SNS surface the notifier needs.
type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier sends return confirmations out of band. Delivery failures
// are logged and reported to the caller, but the chat flow never
// surfaces them: a return stays finalized whether or not the
// confirmation went out.
type Notifier struct {
	email  EmailSender
	sms    SMSSender
	cfg    config.NotificationConfig
	logger logger.Logger
}

func New(email EmailSender, sms SMSSender, cfg config.NotificationConfig, log logger.Logger) *Notifier {
	return &Notifier{
		email:  email,
		sms:    sms,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// Contact is where a confirmation should go. Empty fields skip that
// channel.
type Contact struct {
	Email string
	Phone string
}

// ReturnConfirmed sends the confirmation for a finalized return over
// every enabled channel with a destination.
func (n *Notifier) ReturnConfirmed(ctx context.Context, rec models.ReturnRecord, contact Contact) error {
	var firstErr error

	if n.cfg.Email.Enabled && contact.Email != "" {
		if err := n.sendEmail(ctx, rec, contact.Email); err != nil {
			n.logger.Error("confirmation email failed", map[string]interface{}{
				"recordID": rec.ID,
				"error":    err.Error(),
			})
			firstErr = commonerrors.NewNotificationSendFailedError("email", err)
		}
	}

	if n.cfg.SMS.Enabled && contact.Phone != "" {
		if err := n.sendSMS(ctx, rec, contact.Phone); err != nil {
			n.logger.Error("confirmation sms failed", map[string]interface{}{
				"recordID": rec.ID,
				"error":    err.Error(),
			})
			if firstErr == nil {
				firstErr = commonerrors.NewNotificationSendFailedError("sms", err)
			}
		}
	}

	return firstErr
}

func (n *Notifier) sendEmail(ctx context.Context, rec models.ReturnRecord, to string) error {
	if n.email == nil {
		return fmt.Errorf("email sender not configured")
	}

	subject := fmt.Sprintf("Return confirmed: %s", rec.ProductName)
	body := confirmationBody(rec)

	_, err := n.email.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.cfg.Email.FromEmail),
		Destination: &sestypes.Destination{ToAddresses: []string{to}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err == nil {
		n.logger.Info("confirmation email sent", map[string]interface{}{"recordID": rec.ID})
	}
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, rec models.ReturnRecord, phone string) error {
	if n.sms == nil {
		return fmt.Errorf("sms sender not configured")
	}

	message := fmt.Sprintf("Your return of %s (ref %s) has been confirmed.", rec.ProductName, rec.ID)
	_, err := n.sms.Publish(ctx, &sns.PublishInput{
		Message:     aws.String(message),
		PhoneNumber: aws.String(phone),
	})
	if err == nil {
		n.logger.Info("confirmation sms sent", map[string]interface{}{"recordID": rec.ID})
	}
	return err
}

func confirmationBody(rec models.ReturnRecord) string {
	return fmt.Sprintf(
		"Your return has been submitted.\n\n"+
			"Product: %s\n"+
			"Purchase location: %s\n"+
			"Price: $%.2f\n"+
			"Reason: %s\n"+
			"Warranty: %s\n"+
			"Reference: %s\n",
		rec.ProductName, rec.PurchaseLocation, rec.PurchasePrice,
		rec.ReturnReason, rec.WarrantyStatus, rec.ID,
	)
}
