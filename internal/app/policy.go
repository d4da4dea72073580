package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/core"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickSubscriber
)

type Policy interface {
	OnBackPressure(code domain.Code, sub core.SubscriberID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.Code, core.SubscriberID) BackpressureAction {
	return KickSubscriber
}

// Notifier fans registry events out to the event-stream subscribers of a
// session. It implements core.EventSink.
type Notifier struct {
	Hub    *core.Hub
	Policy Policy
}

func (n *Notifier) Publish(code domain.Code, ev core.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.notifier").Msg("marshal event")
		return
	}
	res := n.Hub.Broadcast(code, data)
	if n.Policy != nil {
		for _, slow := range res.Dropped {
			switch n.Policy.OnBackPressure(code, slow) {
			case KickSubscriber:
				if conn, ok := n.Hub.Unsubscribe(code, slow); ok {
					conn.Close()
					log.Warn().Str("module", "app.notifier").Str("code", string(code)).Str("sub", string(slow)).Msg("kicked slow subscriber")
				}
			case NoAction:
			}
		}
	}
	// Terminal events close the stream once delivered.
	if ev.Type == core.EventSessionEnded || ev.Type == core.EventSessionExpired {
		for _, conn := range n.Hub.Drain(code) {
			conn.Close()
		}
	}
}
