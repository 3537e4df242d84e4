package models

// PlaceholderText is shown for a turn whose reply has not arrived yet.
const PlaceholderText = "Processing..."

// Turn is one entry of a conversation: what the user side displays and what
// the assistant side displays.
type Turn struct {
	User      string `json:"user" msgpack:"user"`
	Assistant string `json:"assistant" msgpack:"assistant"`
	Pending   bool   `json:"pending" msgpack:"pending"`
}
