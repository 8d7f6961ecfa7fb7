package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/models"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
	"github.com/facemark/facemark-api/pkg/jobs"
	"github.com/facemark/facemark-api/pkg/mailer"
)

// mailPayload is the queue payload for one guardian notification.
type mailPayload struct {
	StudentID string
	Day       time.Time
	Present   bool
}

// PresenceChecker answers whether a student has a mark for a day.
type PresenceChecker interface {
	ExistsOn(ctx context.Context, studentID string, day time.Time) (bool, error)
}

// NotificationService mails guardians about attendance. Delivery runs on
// a background queue so SMTP latency never touches the request path.
type NotificationService struct {
	queue    *jobs.Queue
	sender   mailer.Sender
	students StudentLookup
	presence PresenceChecker
	logger   *zap.Logger
	now      func() time.Time
}

// NewNotificationService creates the service with its own delivery queue.
func NewNotificationService(sender mailer.Sender, students StudentLookup, presence PresenceChecker, logger *zap.Logger) *NotificationService {
	s := &NotificationService{
		sender:   sender,
		students: students,
		presence: presence,
		logger:   logger,
		now:      time.Now,
	}
	s.queue = jobs.NewQueue("attendance_mail", s.handleMailJob, jobs.QueueConfig{
		Workers:    2,
		MaxRetries: 3,
		RetryDelay: 30 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyMarked enqueues a guardian notification for a fresh mark.
// Marks without a guardian email are skipped at delivery time.
func (s *NotificationService) NotifyMarked(result *models.MarkResult) {
	if result == nil || !result.Marked {
		return
	}
	s.enqueue(mailPayload{StudentID: result.StudentID, Day: result.AttendedOn, Present: true})
}

// SendAttendanceEmail looks up the student's presence for the day and
// queues a present or absent notice. An empty date means today.
func (s *NotificationService) SendAttendanceEmail(ctx context.Context, studentID, date string) error {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.FromError(err)
	}
	if student.GuardianEmail == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student has no guardian email")
	}

	day := s.now().UTC().Truncate(24 * time.Hour)
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
		}
		day = parsed
	}

	present, err := s.presence.ExistsOn(ctx, studentID, day)
	if err != nil {
		return appErrors.FromError(err)
	}
	s.enqueue(mailPayload{StudentID: studentID, Day: day, Present: present})
	return nil
}

func (s *NotificationService) enqueue(payload mailPayload) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "attendance_mail",
		Payload: payload,
	})
	if err != nil {
		s.logger.Warn("enqueue attendance mail", zap.Error(err))
	}
}

func (s *NotificationService) handleMailJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(mailPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	student, err := s.students.GetByID(ctx, payload.StudentID)
	if err != nil {
		return fmt.Errorf("lookup student for mail: %w", err)
	}
	if student.GuardianEmail == "" {
		return nil
	}

	state := "marked present"
	if !payload.Present {
		state = "recorded absent"
	}
	msg := mailer.Message{
		To:      student.GuardianEmail,
		Subject: fmt.Sprintf("Attendance update for %s", student.FullName),
		Body: fmt.Sprintf(
			"%s was %s on %s.\n\nThis is an automated message.",
			student.FullName, state, payload.Day.Format("Monday, 2 January 2006"),
		),
	}
	if err := s.sender.Send(msg); err != nil {
		return err
	}
	s.logger.Info("attendance mail sent",
		zap.String("student_id", payload.StudentID),
		zap.String("to", student.GuardianEmail),
		zap.Bool("present", payload.Present))
	return nil
}
