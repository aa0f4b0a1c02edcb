// internal/notify/notifier_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"returns-insights/internal/common/config"
	"returns-insights/internal/common/logger"
	"returns-insights/internal/models"
)

type fakeEmailSender struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeEmailSender) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = input
	return &ses.SendEmailOutput{}, f.err
}

type fakeSMSSender struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSMSSender) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = input
	return &sns.PublishOutput{}, f.err
}

func testNotificationConfig(email, sms bool) config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = email
	cfg.Email.FromEmail = "returns@example.com"
	cfg.SMS.Enabled = sms
	return cfg
}

func sampleRecord() models.ReturnRecord {
	return models.ReturnRecord{
		ID:               "rec-1",
		ProductName:      "Camera",
		PurchaseLocation: "Online Store",
		PurchasePrice:    650,
		ReturnReason:     "Device not functioning properly",
		WarrantyStatus:   "Under Warranty",
	}
}

func TestReturnConfirmedSendsEmail(t *testing.T) {
	email := &fakeEmailSender{}
	n := New(email, nil, testNotificationConfig(true, false), logger.NewZapAdapter(zap.NewNop()))

	err := n.ReturnConfirmed(context.Background(), sampleRecord(), Contact{Email: "jo@example.com"})

	require.NoError(t, err)
	require.NotNil(t, email.input)
	assert.Equal(t, "returns@example.com", *email.input.Source)
	assert.Equal(t, []string{"jo@example.com"}, email.input.Destination.ToAddresses)
	assert.Contains(t, *email.input.Message.Subject.Data, "Camera")
	assert.Contains(t, *email.input.Message.Body.Text.Data, "rec-1")
}

func TestReturnConfirmedSendsSMS(t *testing.T) {
	sms := &fakeSMSSender{}
	n := New(nil, sms, testNotificationConfig(false, true), logger.NewZapAdapter(zap.NewNop()))

	err := n.ReturnConfirmed(context.Background(), sampleRecord(), Contact{Phone: "+15550100"})

	require.NoError(t, err)
	require.NotNil(t, sms.input)
	assert.Equal(t, "+15550100", *sms.input.PhoneNumber)
	assert.Contains(t, *sms.input.Message, "rec-1")
}

func TestReturnConfirmedSkipsDisabledChannels(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	n := New(email, sms, testNotificationConfig(false, false), logger.NewZapAdapter(zap.NewNop()))

	err := n.ReturnConfirmed(context.Background(), sampleRecord(), Contact{Email: "jo@example.com", Phone: "+15550100"})

	require.NoError(t, err)
	assert.Nil(t, email.input)
	assert.Nil(t, sms.input)
}

func TestReturnConfirmedSkipsMissingDestinations(t *testing.T) {
	email := &fakeEmailSender{}
	n := New(email, nil, testNotificationConfig(true, true), logger.NewZapAdapter(zap.NewNop()))

	err := n.ReturnConfirmed(context.Background(), sampleRecord(), Contact{})

	require.NoError(t, err)
	assert.Nil(t, email.input)
}

func TestReturnConfirmedReportsDeliveryFailure(t *testing.T) {
	email := &fakeEmailSender{err: errors.New("throttled")}
	n := New(email, nil, testNotificationConfig(true, false), logger.NewZapAdapter(zap.NewNop()))

	err := n.ReturnConfirmed(context.Background(), sampleRecord(), Contact{Email: "jo@example.com"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTIFICATION_SEND_FAILED")
}
