package mqtt

// Publisher sends raw payloads to an MQTT broker.
type Publisher interface {
	// Publish sends payload to topic. Retained messages are replayed by the
	// broker to late subscribers.
	Publish(topic string, payload []byte, retained bool) error

	// Disconnect closes the connection after flushing pending messages.
	Disconnect()
}
