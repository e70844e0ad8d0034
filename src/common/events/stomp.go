package events

import (
	"context"

	"github.com/go-stomp/stomp/v3"
	"github.com/go-stomp/stomp/v3/frame"
	"github.com/jack-barr3tt/journey-tracker/src/common/types"
)

// stompSender is the part of *stomp.Conn the publisher needs.
type stompSender interface {
	Send(destination, contentType string, body []byte, opts ...func(*frame.Frame) error) error
	Disconnect() error
}

type StompPublisher struct {
	conn        stompSender
	destination string
}

func NewStompPublisher(conn *stomp.Conn, destination string) *StompPublisher {
	return &StompPublisher{
		conn:        conn,
		destination: destination,
	}
}

func (p *StompPublisher) Publish(ctx context.Context, event types.JourneyEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := encode(event)
	if err != nil {
		return err
	}

	return p.conn.Send(p.destination, "application/json", body,
		stomp.SendOpt.Header("event-type", string(event.Type)),
	)
}

func (p *StompPublisher) Close() error {
	return p.conn.Disconnect()
}
