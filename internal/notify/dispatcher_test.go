// internal/notify/dispatcher_test.go
package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"award-engine/internal/common/config"
	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"
	"award-engine/internal/common/metrics"
	"award-engine/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

type fakeDirectory struct {
	users  map[string]models.User
	admins []models.User
	err    error
}

func (f *fakeDirectory) GetContact(_ context.Context, userID string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	return &u, nil
}

func (f *fakeDirectory) ListAdmins(context.Context) ([]models.User, error) {
	return f.admins, f.err
}

type fakeRecorder struct {
	mu  sync.Mutex
	got []models.Notification
	err error
}

func (f *fakeRecorder) InsertNotification(_ context.Context, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, n)
	return nil
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() Config {
	return Config{
		EmailEnabled:     true,
		SMSEnabled:       true,
		FromEmail:        "noreply@award.example",
		SMSKinds:         []models.NotificationKind{models.KindBidAccepted, models.KindManualReview},
		BreakerThreshold: 2,
		BreakerCooldown:  time.Minute,
	}
}

func testDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: map[string]models.User{
			"pro-1":   {ID: "pro-1", Email: "pro@example.com", Phone: "+254700000001", Role: models.RoleProfessional},
			"cust-1":  {ID: "cust-1", Email: "cust@example.com", Role: models.RoleCustomer},
			"admin-1": {ID: "admin-1", Email: "ops@example.com", Phone: "+254700000009", Role: models.RoleAdmin},
			"admin-2": {ID: "admin-2", Email: "lead@example.com", Role: models.RoleAdmin},
		},
		admins: []models.User{
			{ID: "admin-1", Email: "ops@example.com", Phone: "+254700000009", Role: models.RoleAdmin},
			{ID: "admin-2", Email: "lead@example.com", Role: models.RoleAdmin},
		},
	}
}

type counters struct {
	mu     sync.Mutex
	emails []string
	sms    []string
}

func okMocks(c *counters) (*MockSESService, *MockSNSService) {
	sesMock := &MockSESService{
		SendEmailFunc: func(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.emails = append(c.emails, params.Destination.ToAddresses[0])
			return &ses.SendEmailOutput{}, nil
		},
	}
	snsMock := &MockSNSService{
		PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.sms = append(c.sms, *params.PhoneNumber)
			return &sns.PublishOutput{}, nil
		},
	}
	return sesMock, snsMock
}

// ==========================
// Core Functionality Tests
// ==========================

func TestDispatcher_Send_Channels(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		kind       models.NotificationKind
		wantEmails int
		wantSMS    int
	}{
		{"high priority kind gets sms", "pro-1", models.KindBidAccepted, 1, 1},
		{"low priority kind email only", "pro-1", models.KindBidRejected, 1, 0},
		{"no phone on file", "cust-1", models.KindBidAccepted, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &counters{}
			sesMock, snsMock := okMocks(c)
			rec := &fakeRecorder{}
			d := NewDispatcher(createTestConfig(), testDirectory(), rec, sesMock, snsMock, metrics.NoopSink{}, logger.NewTestLogger(t))

			err := d.Send(context.Background(), tt.userID, "Title", "Body", tt.kind)

			require.NoError(t, err)
			assert.Len(t, c.emails, tt.wantEmails)
			assert.Len(t, c.sms, tt.wantSMS)
			require.Len(t, rec.got, 1)
			assert.Equal(t, tt.userID, rec.got[0].UserID)
			assert.Equal(t, tt.kind, rec.got[0].Kind)
			assert.NotEmpty(t, rec.got[0].ID)
		})
	}
}

func TestDispatcher_Send_ChannelsDisabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false
	c := &counters{}
	sesMock, snsMock := okMocks(c)
	rec := &fakeRecorder{}

	err := NewDispatcher(cfg, testDirectory(), rec, sesMock, snsMock, nil, logger.NewTestLogger(t)).
		Send(context.Background(), "pro-1", "Title", "Body", models.KindBidAccepted)

	require.NoError(t, err)
	assert.Empty(t, c.emails)
	assert.Empty(t, c.sms)
	assert.Len(t, rec.got, 1, "in-app record is still written")
}

func TestDispatcher_Send_UnknownRecipient(t *testing.T) {
	c := &counters{}
	sesMock, snsMock := okMocks(c)

	err := NewDispatcher(createTestConfig(), testDirectory(), &fakeRecorder{}, sesMock, snsMock, nil, logger.NewTestLogger(t)).
		Send(context.Background(), "ghost", "Title", "Body", models.KindBidAccepted)

	assert.NoError(t, err)
	assert.Empty(t, c.emails)
}

func TestDispatcher_NotifyAdmins(t *testing.T) {
	c := &counters{}
	sesMock, snsMock := okMocks(c)
	rec := &fakeRecorder{}
	d := NewDispatcher(createTestConfig(), testDirectory(), rec, sesMock, snsMock, nil, logger.NewTestLogger(t))

	err := d.NotifyAdmins(context.Background(), "Manual review required", "Best score 45.0", models.KindManualReview)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ops@example.com", "lead@example.com"}, c.emails)
	assert.Equal(t, []string{"+254700000009"}, c.sms)
	assert.Len(t, rec.got, 2)
}

func TestDispatcher_NotifyAdmins_NoAdmins(t *testing.T) {
	dir := testDirectory()
	dir.admins = nil
	rec := &fakeRecorder{}

	err := NewDispatcher(createTestConfig(), dir, rec, nil, nil, nil, logger.NewTestLogger(t)).
		NotifyAdmins(context.Background(), "t", "m", models.KindManualAssignment)

	assert.NoError(t, err)
	assert.Empty(t, rec.got)
}

// ==========================
// Error Handling Tests
// ==========================

func TestDispatcher_Send_EmailFailure(t *testing.T) {
	c := &counters{}
	_, snsMock := okMocks(c)
	sesMock := &MockSESService{
		SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	err := NewDispatcher(createTestConfig(), testDirectory(), &fakeRecorder{}, sesMock, snsMock, nil, logger.NewTestLogger(t)).
		Send(context.Background(), "pro-1", "Title", "Body", models.KindBidAccepted)

	require.Error(t, err)
	std, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, std.Code)
	assert.Len(t, c.sms, 1, "sms still attempted")
}

func TestDispatcher_BreakerStopsCallingFailingChannel(t *testing.T) {
	calls := 0
	sesMock := &MockSESService{
		SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			calls++
			return nil, errors.New("unreachable")
		},
	}
	cfg := createTestConfig()
	cfg.SMSEnabled = false
	d := NewDispatcher(cfg, testDirectory(), &fakeRecorder{}, sesMock, nil, nil, logger.NewTestLogger(t))

	for i := 0; i < 5; i++ {
		assert.Error(t, d.Send(context.Background(), "cust-1", "t", "m", models.KindJobStatus))
	}
	assert.Equal(t, 2, calls)
}

func TestDispatcher_Send_RecordFailure(t *testing.T) {
	c := &counters{}
	sesMock, snsMock := okMocks(c)

	err := NewDispatcher(createTestConfig(), testDirectory(), &fakeRecorder{err: errors.New("db down")}, sesMock, snsMock, nil, logger.NewTestLogger(t)).
		Send(context.Background(), "pro-1", "t", "m", models.KindBidAccepted)

	assert.Error(t, err)
	assert.Empty(t, c.emails)
}

func TestConfigFrom(t *testing.T) {
	var nc config.NotificationConfig
	nc.Email.Enabled = true
	nc.Email.FromEmail = "a@b.c"
	nc.SMS.Kinds = []string{"bid_accepted", "manual_review"}
	nc.BreakerThreshold = 4

	cfg := ConfigFrom(nc)

	assert.True(t, cfg.EmailEnabled)
	assert.False(t, cfg.SMSEnabled)
	assert.Equal(t, []models.NotificationKind{models.KindBidAccepted, models.KindManualReview}, cfg.SMSKinds)
	assert.Equal(t, 4, cfg.BreakerThreshold)
}
