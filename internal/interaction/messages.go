package interaction

import (
	"encoding/json"

	"github.com/Belphemur/BangumiBridge/internal/models"
)

// Color hints how a text message should be rendered.
type Color string

const (
	ColorDefault Color = ""
	ColorInfo    Color = "info"
	ColorSuccess Color = "success"
	ColorWarning Color = "warning"
	ColorError   Color = "error"
)

// Message is one payload sent to the human. Every message encodes to JSON with a "type" discriminator.
type Message interface {
	json.Marshaler
	Kind() string
}

// Text is a plain line of text.
type Text struct {
	Content string `json:"content"`
	Color   Color  `json:"color,omitempty"`
}

func (Text) Kind() string { return "text" }

func (m Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return marshalTyped(m.Kind(), alias(m))
}

// NetworkImage references an image by URL.
type NetworkImage struct {
	URL string `json:"url"`
}

func (NetworkImage) Kind() string { return "network-image" }

func (m NetworkImage) MarshalJSON() ([]byte, error) {
	type alias NetworkImage
	return marshalTyped(m.Kind(), alias(m))
}

// Action is a selectable option inside a ConsumableGroup.
type Action struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (Action) Kind() string { return "action" }

func (m Action) MarshalJSON() ([]byte, error) {
	type alias Action
	return marshalTyped(m.Kind(), alias(m))
}

// Timeout tells the renderer how long the group stays answerable.
type Timeout struct {
	Ms int64 `json:"ms"`
}

func (Timeout) Kind() string { return "timeout" }

func (m Timeout) MarshalJSON() ([]byte, error) {
	type alias Timeout
	return marshalTyped(m.Kind(), alias(m))
}

// Pending shows a busy indicator.
type Pending struct{}

func (Pending) Kind() string { return "pending" }

func (m Pending) MarshalJSON() ([]byte, error) {
	return marshalTyped(m.Kind(), struct{}{})
}

// ConsumableGroup bundles messages that stay interactive until a Consumed with the same ID is sent.
type ConsumableGroup struct {
	ID    string    `json:"id"`
	Items []Message `json:"items"`
}

func (ConsumableGroup) Kind() string { return "consumable-group" }

func (m ConsumableGroup) MarshalJSON() ([]byte, error) {
	type alias ConsumableGroup
	return marshalTyped(m.Kind(), alias(m))
}

// Consumed retires the group with the given ID.
type Consumed struct {
	ID string `json:"id"`
}

func (Consumed) Kind() string { return "consumed" }

func (m Consumed) MarshalJSON() ([]byte, error) {
	type alias Consumed
	return marshalTyped(m.Kind(), alias(m))
}

// SeriesResource attaches a catalog record to the conversation.
type SeriesResource struct {
	Series *models.Series `json:"series"`
}

func (SeriesResource) Kind() string { return "resource-series" }

func (m SeriesResource) MarshalJSON() ([]byte, error) {
	type alias SeriesResource
	return marshalTyped(m.Kind(), alias(m))
}

// marshalTyped encodes body as a JSON object and prepends the "type" discriminator.
func marshalTyped(kind string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	typeField, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(raw)+len(typeField)+10)
	out = append(out, `{"type":`...)
	out = append(out, typeField...)
	if len(raw) > 2 {
		out = append(out, ',')
		out = append(out, raw[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}
