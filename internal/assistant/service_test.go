// AngelaMos | 2026
// service_test.go

package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/dentflow/internal/appointment"
	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

const tenant = "3f1e0000-0000-4000-8000-000000000001"

type fakeStats struct {
	dayFrom, dayTo     time.Time
	monthFrom, monthTo time.Time
	status             string
	err                error
}

func (f *fakeStats) CountBetween(_ context.Context, _ string, from, to time.Time) (int, error) {
	f.dayFrom, f.dayTo = from, to
	return 7, f.err
}

func (f *fakeStats) CountByStatus(_ context.Context, _ string, status string) (int, error) {
	f.status = status
	return 3, nil
}

func (f *fakeStats) RevenueBetween(_ context.Context, _ string, from, to time.Time) (int64, error) {
	f.monthFrom, f.monthTo = from, to
	return 125050, nil
}

type fakePatients struct{}

func (fakePatients) Count(context.Context, string) (int, error) { return 42, nil }

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func fixedNow(svc *Service) {
	svc.now = func() time.Time {
		return time.Date(2026, time.March, 18, 15, 30, 0, 0, time.UTC)
	}
}

func TestSummarizeRunsEveryQuery(t *testing.T) {
	stats := &fakeStats{}
	svc := NewService(stats, fakePatients{}, nil, nil)
	fixedNow(svc)

	sum, err := svc.Summarize(context.Background(), tenant)
	require.NoError(t, err)

	assert.Equal(t, Summary{
		AppointmentsToday:   7,
		PendingAppointments: 3,
		TotalPatients:       42,
		MonthRevenueCents:   125050,
	}, sum)

	assert.Equal(t, time.Date(2026, time.March, 18, 0, 0, 0, 0, time.UTC), stats.dayFrom)
	assert.Equal(t, time.Date(2026, time.March, 19, 0, 0, 0, 0, time.UTC), stats.dayTo)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), stats.monthFrom)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), stats.monthTo)
	assert.Equal(t, appointment.StatusPending, stats.status)
}

func TestSummarizePropagatesQueryFailure(t *testing.T) {
	svc := NewService(&fakeStats{err: errors.New("pool exhausted")}, fakePatients{}, nil, nil)

	_, err := svc.Summarize(context.Background(), tenant)
	assert.ErrorContains(t, err, "pool exhausted")
}

func TestChatWithoutModelFallsBack(t *testing.T) {
	svc := NewService(&fakeStats{}, fakePatients{}, nil, nil)
	fixedNow(svc)

	reply, err := svc.Chat(context.Background(), tenant, ChatRequest{
		Messages: []ChatMessage{{Role: "user", Content: "how is today?"}},
	})
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, reply.Source)
	assert.Contains(t, reply.Text, "Appointments today: 7")
	assert.Contains(t, reply.Text, "Revenue this month: 1250.50")
}

func TestChatSendsSystemPromptFirst(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []Message) bool {
		return len(msgs) == 3 &&
			msgs[0].Role == "system" &&
			strings.Contains(msgs[0].Content, "Registered patients: 42") &&
			strings.Contains(msgs[0].Content, `"agenda"`) &&
			msgs[1].Content == "hi" &&
			msgs[2].Role == "assistant"
	})).Return("Seven appointments today.", nil).Once()

	svc := NewService(&fakeStats{}, fakePatients{}, completer, nil)
	fixedNow(svc)

	reply, err := svc.Chat(context.Background(), tenant, ChatRequest{
		Page: "agenda",
		Messages: []ChatMessage{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, SourceModel, reply.Source)
	assert.Equal(t, "Seven appointments today.", reply.Text)
	completer.AssertExpectations(t)
}

func TestChatUpstreamFailureIsBadGateway(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("timeout"))

	svc := NewService(&fakeStats{}, fakePatients{}, completer, nil)

	_, err := svc.Chat(context.Background(), tenant, ChatRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUpstream)
	assert.Equal(t, http.StatusBadGateway, core.MapError(err, "assistant").StatusCode)
}

func TestClientCallsChatCompletions(t *testing.T) {
	var got completionRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL+"/", "sk-test", "gpt-4o-mini", time.Second)

	text, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "ping"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Len(t, got.Messages, 1)
}

func TestClientReportsUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "sk-test", "m", time.Second)

	_, err := client.Complete(context.Background(), nil)
	assert.ErrorContains(t, err, "status 429")
}

func TestClientRejectsEmptyChoices(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer upstream.Close()

	_, err := NewClient(upstream.URL, "k", "m", 0).Complete(context.Background(), nil)
	assert.ErrorContains(t, err, "no choices")
}

type gate bool

func (g gate) IsFeatureEnabled(context.Context, string, string) bool { return bool(g) }

func chatRouter(enabled bool) http.Handler {
	svc := NewService(&fakeStats{}, fakePatients{}, nil, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			session := &middleware.Session{TenantID: tenant, UserID: "u1", Role: "DENTIST"}
			next.ServeHTTP(w, req.WithContext(middleware.WithSession(req.Context(), session)))
		})
	})
	NewHandler(svc).RegisterRoutes(r, middleware.RequireFeature(gate(enabled), "ai_dashboard"))
	return r
}

func TestChatEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		body    string
		status  int
		expect  string
	}{
		{"fallback reply", true, `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusOK, `"source":"fallback"`},
		{"plan without dashboard", false, `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusForbidden, "PLAN_UPGRADE_REQUIRED"},
		{"no messages", true, `{"messages":[]}`, http.StatusBadRequest, "messages"},
		{"system role from client", true, `{"messages":[{"role":"system","content":"x"}]}`, http.StatusBadRequest, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			chatRouter(tt.enabled).ServeHTTP(rec,
				httptest.NewRequest(http.MethodPost, "/assistant/chat", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expect)
		})
	}
}
