package service

// EventBus abstracts event publishing so services can notify builder previews
// and live renderers without depending on the transport.
type EventBus interface {
	PublishForm(formID string, event map[string]interface{}) error
	PublishSession(sessionID string, event map[string]interface{}) error
	PublishClient(clientID string, event map[string]interface{}) error
}
