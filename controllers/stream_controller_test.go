package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"writing-challenge-api/models"
	"writing-challenge-api/realtime"
)

// closeNotifyingRecorder satisfies http.CloseNotifier, which gin's Stream
// requires from the underlying writer.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool { return r.closed }

func TestStreamWritesRecipientEvents(t *testing.T) {
	hub := realtime.NewHub()
	r := gin.New()
	r.GET("/stream", asUser(5), NewStreamController(hub).Stream)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
	w := &closeNotifyingRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return hub.Subscribers(5) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, hub.Publish(context.Background(), models.NotificationEvent{
		RecipientID:  5,
		Notification: models.Notification{NotificationID: "n-9", UserID: 5, Title: "You won a challenge!"},
		Status:       models.NotificationUnread,
	}))

	// Give the handler a moment to flush the event before disconnecting.
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.True(t, strings.Contains(body, "event:notification"), body)
	assert.Contains(t, body, "n-9")
	assert.Zero(t, hub.Subscribers(5))
}
