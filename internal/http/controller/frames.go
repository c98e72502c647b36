package controller

import (
	"encoding/json"
	"fmt"
	"io"

	"clinic_notify/internal/feed"
	"clinic_notify/internal/model"
	"clinic_notify/internal/sse"
)

const (
	frameConsumer = "consumer"
	heartbeat     = ": ping\n\n"
)

// writeFrame writes one server-sent event. Browsers dispatch it to listeners
// registered for event; id becomes the stream's last event id when set.
func writeFrame(w io.Writer, event, id string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", event, err)
	}
	if id != "" {
		_, err = fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n", event, id, payload)
	} else {
		_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	}
	return err
}

func writeChange(w io.Writer, change feed.Change) error {
	return writeFrame(w, string(change.Kind), change.ID, change)
}

func writeToast(w io.Writer, toast model.Toast) error {
	return writeFrame(w, sse.EventToast, "", toast)
}

func writeHeartbeat(w io.Writer) error {
	_, err := io.WriteString(w, heartbeat)
	return err
}
