package notify

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// SubjectPrefix is prepended to the storage key to form the NATS subject.
const SubjectPrefix = "catalyst.content."

// ConnectNATS dials the NATS server at url, with an optional token.
func ConnectNATS(url, token string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.Name("catalyst content"),
	}

	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	return nats.Connect(url, opts...)
}

// NATSBridge relays bus changes to other service instances and feeds
// their changes back into the local bus.
type NATSBridge struct {
	conn       *nats.Conn
	bus        *Bus
	InstanceID string
}

func NewNATSBridge(nc *nats.Conn, bus *Bus) *NATSBridge {
	return &NATSBridge{conn: nc, bus: bus, InstanceID: uuid.NewString()}
}

// Forward publishes every locally made change to NATS.
func (b *NATSBridge) Forward() *Subscription {
	return b.bus.Subscribe(All, func(c Change) {
		if c.Origin != "" {
			return
		}
		c.Origin = b.InstanceID
		payload, err := json.Marshal(c)
		if err != nil {
			log.Errorf("nats bridge: unable to marshal change for %s: %s", c.Key, err)
			return
		}
		if err := b.conn.Publish(SubjectPrefix+c.Key, payload); err != nil {
			log.Errorf("Error publishing to topic %s: %s", SubjectPrefix+c.Key, err)
		}
	})
}

// Listen republishes changes made by other instances on the local bus.
func (b *NATSBridge) Listen() (*nats.Subscription, error) {
	return b.conn.Subscribe(SubjectPrefix+">", b.handleMessage)
}

func (b *NATSBridge) handleMessage(msg *nats.Msg) {
	var c Change
	if err := json.Unmarshal(msg.Data, &c); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}
	if c.Origin == b.InstanceID {
		return
	}
	if c.Key == "" {
		c.Key = strings.TrimPrefix(msg.Subject, SubjectPrefix)
	}
	if c.Origin == "" {
		c.Origin = "unknown"
	}
	b.bus.Publish(c)
}
