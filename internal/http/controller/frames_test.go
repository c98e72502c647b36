package controller

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"clinic_notify/internal/feed"
	"clinic_notify/internal/http/dto"
	"clinic_notify/internal/model"
)

func TestFrames(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	existing := model.Notification{
		ID:        "n1",
		UserID:    "u1",
		Type:      "info",
		Title:     "Hi",
		Message:   "There",
		CreatedAt: base,
	}
	synthetic := model.Notification{
		ID:        "appointment_a1",
		UserID:    "u1",
		Type:      "info",
		Title:     "New appointment",
		Message:   "A new appointment was scheduled for 2024-05-02 at 10:30",
		CreatedAt: base.Add(5 * time.Minute),
	}

	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, frameConsumer, "", dto.ConsumerFrame{ConsumerID: "c1", UserID: "u1"}))
	require.NoError(t, writeChange(&buf, feed.Change{
		Kind:          feed.ChangeSnapshot,
		Notifications: []model.Notification{existing},
		UnreadCount:   1,
	}))
	require.NoError(t, writeChange(&buf, feed.Change{
		Kind:         feed.ChangeAppended,
		ID:           synthetic.ID,
		Notification: &synthetic,
		UnreadCount:  2,
	}))
	require.NoError(t, writeToast(&buf, model.Toast{Style: "info", Title: synthetic.Title, Message: synthetic.Message}))
	require.NoError(t, writeChange(&buf, feed.Change{Kind: feed.ChangeRemoved, ID: "n1", UnreadCount: 1}))
	require.NoError(t, writeChange(&buf, feed.Change{Kind: feed.ChangeReadAll}))
	require.NoError(t, writeHeartbeat(&buf))

	g := goldie.New(t)
	g.Assert(t, "frames", buf.Bytes())
}

func TestWriteFrameRejectsUnencodableData(t *testing.T) {
	var buf bytes.Buffer
	err := writeFrame(&buf, "bad", "", make(chan int))
	require.Error(t, err)
	require.Zero(t, buf.Len())
}
