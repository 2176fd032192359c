// AngelaMos | 2026
// service.go

package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/dentflow/internal/appointment"
	"github.com/carterperez-dev/dentflow/internal/core"
)

const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

type AppointmentStats interface {
	CountBetween(ctx context.Context, tenantID string, from, to time.Time) (int, error)
	CountByStatus(ctx context.Context, tenantID, status string) (int, error)
	RevenueBetween(ctx context.Context, tenantID string, from, to time.Time) (int64, error)
}

type PatientCounter interface {
	Count(ctx context.Context, tenantID string) (int, error)
}

// Summary is the clinic snapshot handed to the model as context.
type Summary struct {
	AppointmentsToday   int
	PendingAppointments int
	TotalPatients       int
	MonthRevenueCents   int64
}

// Reply is the assistant answer together with the snapshot it was built on.
type Reply struct {
	Text    string
	Source  string
	Summary Summary
}

type Service struct {
	appointments AppointmentStats
	patients     PatientCounter
	completer    Completer
	logger       *slog.Logger
	location     *time.Location
	now          func() time.Time
}

// NewService answers with a canned reply when completer is nil.
func NewService(
	appointments AppointmentStats,
	patients PatientCounter,
	completer Completer,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		appointments: appointments,
		patients:     patients,
		completer:    completer,
		logger:       logger,
		location:     time.UTC,
		now:          time.Now,
	}
}

func (s *Service) Summarize(ctx context.Context, tenantID string) (Summary, error) {
	now := s.now().In(s.location)
	dayStart, dayEnd := appointment.DayRange(now, s.location)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location)
	monthEnd := monthStart.AddDate(0, 1, 0)

	var sum Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.appointments.CountBetween(ctx, tenantID, dayStart, dayEnd)
		sum.AppointmentsToday = n
		return err
	})
	g.Go(func() error {
		n, err := s.appointments.CountByStatus(ctx, tenantID, appointment.StatusPending)
		sum.PendingAppointments = n
		return err
	})
	g.Go(func() error {
		n, err := s.patients.Count(ctx, tenantID)
		sum.TotalPatients = n
		return err
	})
	g.Go(func() error {
		n, err := s.appointments.RevenueBetween(ctx, tenantID, monthStart, monthEnd)
		sum.MonthRevenueCents = n
		return err
	})

	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("build assistant summary: %w", err)
	}
	return sum, nil
}

func (s *Service) Chat(ctx context.Context, tenantID string, req ChatRequest) (*Reply, error) {
	sum, err := s.Summarize(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if s.completer == nil {
		return &Reply{Text: fallbackReply(sum), Source: SourceFallback, Summary: sum}, nil
	}

	messages := make([]Message, 0, len(req.Messages)+1)
	messages = append(messages, Message{Role: "system", Content: systemPrompt(sum, req.Page)})
	for _, m := range req.Messages {
		messages = append(messages, Message{Role: m.Role, Content: m.Content})
	}

	text, err := s.completer.Complete(ctx, messages)
	if err != nil {
		core.MarkSpanFailed(ctx, err)
		s.logger.Error("assistant completion failed", "tenant_id", tenantID, "error", err)
		return nil, core.UpstreamError("the assistant is unavailable right now")
	}

	return &Reply{Text: text, Source: SourceModel, Summary: sum}, nil
}

func systemPrompt(sum Summary, page string) string {
	var b strings.Builder
	b.WriteString("You are the assistant of a dental clinic management system. ")
	b.WriteString("Answer briefly and only from the clinic data below; say so when the data does not cover a question.\n\n")
	b.WriteString(describe(sum))
	if page = strings.TrimSpace(page); page != "" {
		fmt.Fprintf(&b, "\nThe user is currently on the %q page.", page)
	}
	return b.String()
}

func fallbackReply(sum Summary) string {
	return "The AI model is not configured for this clinic yet. Here is today's overview:\n" + describe(sum)
}

func describe(sum Summary) string {
	return fmt.Sprintf(
		"- Appointments today: %d\n- Pending appointments: %d\n- Registered patients: %d\n- Revenue this month: %s\n",
		sum.AppointmentsToday,
		sum.PendingAppointments,
		sum.TotalPatients,
		formatCents(sum.MonthRevenueCents),
	)
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
