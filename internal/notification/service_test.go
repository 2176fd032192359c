// AngelaMos | 2026
// service_test.go

package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

const (
	tenant = "9a9a0000-0000-4000-8000-000000000001"
	userA  = "9a9a0000-0000-4000-8000-0000000000a1"
	userB  = "9a9a0000-0000-4000-8000-0000000000b1"
)

type memRepo struct {
	rows []*Notification
}

func (m *memRepo) Create(_ context.Context, n *Notification) error {
	n.CreatedAt = time.Now()
	cp := *n
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memRepo) List(_ context.Context, org, recipient string, unreadOnly bool, _ int) ([]Notification, error) {
	var out []Notification
	for _, n := range m.rows {
		if n.OrganizationID == org && n.RecipientID == recipient && (!unreadOnly || !n.Read) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *memRepo) MarkRead(_ context.Context, org, recipient, id string) (*Notification, error) {
	for _, n := range m.rows {
		if n.ID == id && n.OrganizationID == org && n.RecipientID == recipient {
			n.Read = true
			cp := *n
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memRepo) MarkAllRead(_ context.Context, org, recipient string) (int64, error) {
	var count int64
	for _, n := range m.rows {
		if n.OrganizationID == org && n.RecipientID == recipient && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("nats down")
}

func sessionFor(user string) *middleware.Session {
	return &middleware.Session{TenantID: tenant, UserID: user, Role: "DENTIST"}
}

func TestNotifyStoresPayloadAndSurvivesPublishFailure(t *testing.T) {
	repo := &memRepo{}
	pub := &failingPublisher{}
	svc := NewService(repo, pub, nil)

	n, err := svc.Notify(context.Background(), Draft{
		OrganizationID: tenant,
		RecipientID:    userA,
		Type:           TypeProstheticReady,
		Title:          "Prosthetic ready",
		Message:        "Order for Maria is ready",
		Payload:        map[string]string{"order_id": "o1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pub.calls)
	require.Len(t, repo.rows, 1)
	assert.JSONEq(t, `{"order_id":"o1"}`, string(n.Payload))
}

func TestOnlyRecipientSeesAndMarksNotifications(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	n, err := svc.Notify(ctx, Draft{OrganizationID: tenant, RecipientID: userA, Type: "info", Title: "t", Message: "m"})
	require.NoError(t, err)

	others, err := svc.List(ctx, sessionFor(userB), false)
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = svc.MarkRead(ctx, sessionFor(userB), n.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.MarkRead(ctx, sessionFor(userA), n.ID)
	require.NoError(t, err)

	unread, err := svc.List(ctx, sessionFor(userA), true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestMarkAllReadCountsOnlyUnread(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Notify(ctx, Draft{OrganizationID: tenant, RecipientID: userA, Type: "info", Title: "t", Message: "m"})
		require.NoError(t, err)
	}

	updated, err := svc.MarkAllRead(ctx, sessionFor(userA))
	require.NoError(t, err)
	assert.EqualValues(t, 3, updated)

	updated, err = svc.MarkAllRead(ctx, sessionFor(userA))
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestHubDeliversOnlyToRecipient(t *testing.T) {
	hub := NewHub(nil)
	chA, cancelA := hub.Subscribe(userA)
	chB, cancelB := hub.Subscribe(userB)
	defer cancelB()

	hub.Deliver(Event{Type: EventCreated, RecipientID: userA, Notification: NotificationResponse{ID: "n1"}})

	select {
	case e := <-chA:
		assert.Equal(t, "n1", e.Notification.ID)
	case <-time.After(time.Second):
		t.Fatal("recipient did not receive event")
	}

	select {
	case e := <-chB:
		t.Fatalf("unexpected event for other user: %v", e)
	default:
	}

	cancelA()
	cancelA()
	assert.Zero(t, hub.Connections(userA))
	assert.Equal(t, 1, hub.Connections(userB))
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(nil)
	ch, cancel := hub.Subscribe(userA)
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Deliver(Event{RecipientID: userA})
	}

	assert.Len(t, ch, subscriberBuffer)
}

func TestStreamPushesCreatedNotifications(t *testing.T) {
	hub := NewHub(nil)
	svc := NewService(&memRepo{}, hub, nil)
	h := NewHandler(svc, hub, []string{"*"}, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithSession(req.Context(), sessionFor(userA))))
		})
	})
	h.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/notifications/stream", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return hub.Connections(userA) == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = svc.Notify(ctx, Draft{OrganizationID: tenant, RecipientID: userA, Type: TypeProstheticReady, Title: "t", Message: "ready"})
	require.NoError(t, err)

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var e Event
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Equal(t, EventCreated, e.Type)
	assert.Equal(t, "ready", e.Notification.Message)
}
