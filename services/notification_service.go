package services

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"writing-challenge-api/errs"
	"writing-challenge-api/models"
	"writing-challenge-api/utils"
)

// DefaultFanoutBatchSize bounds how many messages are delivered per store call.
const DefaultFanoutBatchSize = 1000

// Message is one recipient's copy of a logical event.
type Message struct {
	To      uint                    `json:"to"`
	Title   string                  `json:"title"`
	Content string                  `json:"content"`
	Type    models.NotificationType `json:"type"`

	// BypassCategory skips the per-type opt-out flags. Only the global
	// allow_notifications flag is honoured.
	BypassCategory bool `json:"-"`

	// Email requests a best-effort email copy when a mailer is configured.
	Email bool `json:"-"`
}

// DeliveryReport summarises a fan-out run.
type DeliveryReport struct {
	Delivered int `json:"delivered"`
	Skipped   int `json:"skipped"`
	Batches   int `json:"batches"`
}

type NotificationOptions struct {
	BatchSize int
	Retention time.Duration
	Now       func() time.Time
}

// NotificationService stores, publishes and transitions user notifications.
type NotificationService struct {
	store     NotificationStore
	users     UserStore
	publisher Publisher
	mailer    Mailer
	batchSize int
	retention time.Duration
	now       func() time.Time
	log       *logrus.Entry
}

// NewNotificationService builds the fan-out service. publisher and mailer may
// be nil.
func NewNotificationService(store NotificationStore, users UserStore, publisher Publisher, mailer Mailer, opts NotificationOptions) *NotificationService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultFanoutBatchSize
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetentionPeriod
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &NotificationService{
		store:     store,
		users:     users,
		publisher: publisher,
		mailer:    mailer,
		batchSize: opts.BatchSize,
		retention: opts.Retention,
		now:       opts.Now,
		log:       logrus.WithField("component", "notifications"),
	}
}

// Send delivers a single message.
func (s *NotificationService) Send(ctx context.Context, msg Message) (*DeliveryReport, error) {
	return s.SendMany(ctx, []Message{msg})
}

// SendMany validates every message, then delivers them in batches. Batches
// carry no ordering guarantee relative to each other.
func (s *NotificationService) SendMany(ctx context.Context, msgs []Message) (*DeliveryReport, error) {
	for i, msg := range msgs {
		if err := validateMessage(msg); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
	}

	report := &DeliveryReport{}
	for start := 0; start < len(msgs); start += s.batchSize {
		end := min(start+s.batchSize, len(msgs))
		if err := s.deliverBatch(ctx, msgs[start:end], report); err != nil {
			return report, fmt.Errorf("deliver batch %d: %w", report.Batches, err)
		}
		report.Batches++
	}
	return report, nil
}

func validateMessage(msg Message) error {
	if msg.To == 0 {
		return fmt.Errorf("%w: recipient is required", errs.ErrValidation)
	}
	if strings.TrimSpace(msg.Title) == "" {
		return fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	if !msg.Type.Valid() {
		return fmt.Errorf("%w: unknown notification type %q", errs.ErrValidation, msg.Type)
	}
	return nil
}

func (s *NotificationService) deliverBatch(ctx context.Context, batch []Message, report *DeliveryReport) error {
	ids := make([]uint, 0, len(batch))
	seen := make(map[uint]struct{}, len(batch))
	for _, msg := range batch {
		if _, ok := seen[msg.To]; !ok {
			seen[msg.To] = struct{}{}
			ids = append(ids, msg.To)
		}
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load recipients: %w", err)
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}

	now := s.now().UTC()
	rows := make([]models.Notification, 0, len(batch))
	emails := make([]pendingEmail, 0)
	for _, msg := range batch {
		u, ok := byID[msg.To]
		if !ok {
			report.Skipped++
			notificationsSkipped.WithLabelValues("unknown_user").Inc()
			s.log.WithField("user_id", msg.To).Warn("notification recipient not found")
			continue
		}
		if !Allows(u, msg) {
			report.Skipped++
			notificationsSkipped.WithLabelValues("opted_out").Inc()
			continue
		}
		rows = append(rows, models.Notification{
			NotificationID: uuid.NewString(),
			UserID:         u.UserID,
			Title:          msg.Title,
			Content:        msg.Content,
			Type:           msg.Type,
			Status:         models.NotificationUnread,
			CreateAt:       now,
		})
		if msg.Email && utils.ValidateEmail(u.Email) {
			emails = append(emails, pendingEmail{to: u.Email, name: u.Username, subject: msg.Title, body: msg.Content})
		}
	}

	if len(rows) == 0 {
		return nil
	}
	if err := s.store.InsertBatch(ctx, rows); err != nil {
		return err
	}
	report.Delivered += len(rows)

	for _, n := range rows {
		notificationsDelivered.WithLabelValues(string(n.Type)).Inc()
		s.publish(ctx, n)
	}
	s.sendEmails(emails)
	return nil
}

// publish is best-effort: the row is already stored and stays stored.
func (s *NotificationService) publish(ctx context.Context, n models.Notification) {
	if s.publisher == nil {
		return
	}
	ev := models.NotificationEvent{RecipientID: n.UserID, Notification: n, Status: n.Status}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		publishFailures.Inc()
		s.log.WithFields(logrus.Fields{
			"user_id":         n.UserID,
			"notification_id": n.NotificationID,
		}).Warnf("real-time publish failed: %v", err)
	}
}

// Allows reports whether u accepts msg under their preference flags.
func Allows(u models.User, msg Message) bool {
	if !u.AllowNotifications {
		return false
	}
	if msg.BypassCategory {
		return true
	}
	switch msg.Type {
	case models.NotificationGeneral, models.NotificationAccountUpdate:
		return true
	case models.NotificationChallengeActivity:
		return u.AllowChallengeActivity
	case models.NotificationReviewUpdate:
		return u.AllowReviewUpdates
	case models.NotificationSubmissionInteraction:
		return u.AllowSubmissionInteractions
	case models.NotificationFollowActivity:
		return u.AllowFollowActivity
	}
	return false
}

type pendingEmail struct {
	to      string
	name    string
	subject string
	body    string
}

func (s *NotificationService) sendEmails(emails []pendingEmail) {
	if s.mailer == nil || len(emails) == 0 {
		return
	}
	go func() {
		for _, e := range emails {
			html := buildEmailHTML(e.subject, e.name, e.body)
			if err := s.mailer.SendMail([]string{e.to}, e.subject, html); err != nil {
				s.log.Warnf("notification email send failed (subject=%q to=%s): %v", e.subject, e.to, err)
			}
		}
	}()
}

func buildEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "writer"
	}
	body := template.HTMLEscapeString(strings.TrimSpace(message))
	body = strings.ReplaceAll(body, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>%s</title></head>
<body style="margin:0;padding:24px;font-family:'Segoe UI',Tahoma,Arial,sans-serif;color:#111827;">
<p style="font-size:16px;line-height:1.7;">Hi %s,</p>
<p style="font-size:16px;line-height:1.7;word-break:break-word;">%s</p>
</body>
</html>`, template.HTMLEscapeString(subject), template.HTMLEscapeString(name), body)
}

// List returns a user's notifications after purging expired deletions.
func (s *NotificationService) List(ctx context.Context, userID uint) ([]models.Notification, error) {
	if _, err := s.purgeExpiredFor(ctx, userID); err != nil {
		return nil, err
	}
	items, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %d: %w", userID, err)
	}
	return items, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}

// SetStatus moves one notification to target. delete stamps the deletion
// time, permanently_delete removes the row, anything else clears the stamp.
func (s *NotificationService) SetStatus(ctx context.Context, userID uint, notificationID string, target models.NotificationStatus) error {
	if strings.TrimSpace(notificationID) == "" {
		return fmt.Errorf("%w: notification id is required", errs.ErrValidation)
	}
	if !target.Target() {
		return fmt.Errorf("%w: invalid status %q", errs.ErrValidation, target)
	}
	return retryOnConflict(func() error {
		return s.store.SetStatus(ctx, userID, notificationID, target, s.now().UTC())
	})
}

// SetAllStatus applies the same transition to every notification the user
// currently holds in status from.
func (s *NotificationService) SetAllStatus(ctx context.Context, userID uint, from, to models.NotificationStatus) (int64, error) {
	if !from.Stored() {
		return 0, fmt.Errorf("%w: invalid source status %q", errs.ErrValidation, from)
	}
	if !to.Target() {
		return 0, fmt.Errorf("%w: invalid status %q", errs.ErrValidation, to)
	}
	var changed int64
	err := retryOnConflict(func() error {
		var err error
		changed, err = s.store.SetAllStatus(ctx, userID, from, to, s.now().UTC())
		return err
	})
	return changed, err
}

// retryOnConflict runs fn again once when it lost a race, then surfaces.
func retryOnConflict(fn func() error) error {
	err := fn()
	if errors.Is(err, errs.ErrConflict) {
		err = fn()
	}
	return err
}
