package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"classattend/internal/notify"
)

// TypeAbsence marks messages carrying a parent absence alert.
const TypeAbsence = "absence"

// AbsencePublisher adapts a Queue into the alert sink the attendance
// service publishes to.
type AbsencePublisher struct {
	q Queue
}

// NewAbsencePublisher wraps a queue.
func NewAbsencePublisher(q Queue) *AbsencePublisher {
	return &AbsencePublisher{q: q}
}

// PublishAbsence enqueues one alert for the worker to deliver.
func (p *AbsencePublisher) PublishAbsence(ctx context.Context, alert notify.AbsenceAlert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode absence alert: %w", err)
	}
	return p.q.Publish(ctx, Message{Type: TypeAbsence, Body: body})
}

// DecodeAbsence unpacks an alert from a consumed message.
func DecodeAbsence(msg Message) (notify.AbsenceAlert, error) {
	var alert notify.AbsenceAlert
	if err := json.Unmarshal(msg.Body, &alert); err != nil {
		return notify.AbsenceAlert{}, fmt.Errorf("decode absence alert: %w", err)
	}
	return alert, nil
}
