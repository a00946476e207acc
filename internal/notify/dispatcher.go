// internal/notify/dispatcher.go

// Package notify persists user notifications and delivers them by email
// and SMS.
package notify

import (
	"context"
	"errors"
	"time"

	"award-engine/internal/common/circuitbreaker"
	"award-engine/internal/common/config"
	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"
	"award-engine/internal/common/metrics"
	"award-engine/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Directory resolves recipients.
type Directory interface {
	GetContact(ctx context.Context, userID string) (*models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
}

// Recorder stores the in-app notification record.
type Recorder interface {
	InsertNotification(ctx context.Context, n models.Notification) error
}

type Config struct {
	EmailEnabled     bool
	SMSEnabled       bool
	FromEmail        string
	SMSKinds         []models.NotificationKind
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

func ConfigFrom(cfg config.NotificationConfig) Config {
	kinds := make([]models.NotificationKind, 0, len(cfg.SMS.Kinds))
	for _, k := range cfg.SMS.Kinds {
		kinds = append(kinds, models.NotificationKind(k))
	}
	return Config{
		EmailEnabled:     cfg.Email.Enabled,
		SMSEnabled:       cfg.SMS.Enabled,
		FromEmail:        cfg.Email.FromEmail,
		SMSKinds:         kinds,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown,
	}
}

type Dispatcher struct {
	config    Config
	directory Directory
	recorder  Recorder
	sesClient SESService
	snsClient SNSService
	breaker   *circuitbreaker.Breaker
	metrics   metrics.Sink
	logger    logger.Logger
	now       func() time.Time
}

func NewDispatcher(cfg Config, dir Directory, rec Recorder, sesClient SESService, snsClient SNSService, sink metrics.Sink, log logger.Logger) *Dispatcher {
	if sink == nil {
		sink = metrics.NoopSink{}
	}
	return &Dispatcher{
		config:    cfg,
		directory: dir,
		recorder:  rec,
		sesClient: sesClient,
		snsClient: snsClient,
		breaker:   circuitbreaker.New(cfg.BreakerThreshold, cfg.BreakerCooldown),
		metrics:   sink,
		logger:    logger.Component(log, "notify"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Send records the notification and delivers it on every enabled channel.
// A missing recipient is logged and skipped.
func (d *Dispatcher) Send(ctx context.Context, userID, title, message string, kind models.NotificationKind) error {
	n := models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		CreatedAt: d.now(),
	}
	if err := d.recorder.InsertNotification(ctx, n); err != nil {
		return apperrors.NewNotificationSendFailedError("record", err)
	}

	user, err := d.directory.GetContact(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			d.logger.Warn("recipient not found", map[string]interface{}{
				"userId": userID,
				"kind":   kind,
			})
			return nil
		}
		return apperrors.NewNotificationSendFailedError("directory", err)
	}
	return d.deliver(ctx, *user, n)
}

// NotifyAdmins sends the same notification to every admin user.
func (d *Dispatcher) NotifyAdmins(ctx context.Context, title, message string, kind models.NotificationKind) error {
	admins, err := d.directory.ListAdmins(ctx)
	if err != nil {
		return apperrors.NewNotificationSendFailedError("directory", err)
	}
	if len(admins) == 0 {
		d.logger.Warn("no admin users to notify", map[string]interface{}{
			"kind":  kind,
			"title": title,
		})
		return nil
	}

	var errs []error
	for _, admin := range admins {
		if err := d.Send(ctx, admin.ID, title, message, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) deliver(ctx context.Context, user models.User, n models.Notification) error {
	var errs []error

	if d.config.EmailEnabled && d.sesClient != nil && user.Email != "" {
		err := d.breaker.Do(ChannelEmail, func() error {
			return d.sendEmail(ctx, user.Email, n.Title, n.Message)
		})
		d.record(ChannelEmail, user.ID, n.Kind, err)
		if err != nil {
			errs = append(errs, apperrors.NewNotificationSendFailedError(ChannelEmail, err))
		}
	}

	if d.config.SMSEnabled && d.snsClient != nil && user.Phone != "" && d.smsKind(n.Kind) {
		err := d.breaker.Do(ChannelSMS, func() error {
			return d.sendSMS(ctx, user.Phone, n.Title+": "+n.Message)
		})
		d.record(ChannelSMS, user.ID, n.Kind, err)
		if err != nil {
			errs = append(errs, apperrors.NewNotificationSendFailedError(ChannelSMS, err))
		}
	}

	return errors.Join(errs...)
}

func (d *Dispatcher) record(channel, userID string, kind models.NotificationKind, err error) {
	d.metrics.NotificationDelivered(channel, err)
	if err == nil {
		return
	}
	d.logger.Warn("notification delivery failed", map[string]interface{}{
		"channel": channel,
		"userId":  userID,
		"kind":    kind,
		"error":   err,
	})
}

func (d *Dispatcher) smsKind(kind models.NotificationKind) bool {
	for _, k := range d.config.SMSKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (d *Dispatcher) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := d.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(d.config.FromEmail),
	})
	return err
}

func (d *Dispatcher) sendSMS(ctx context.Context, to, message string) error {
	_, err := d.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
