package tool

import (
	"encoding/json"
	"fmt"
)

// Media is a binary tool result such as a rendered chart. Tools returning
// Media are flagged in their [ToolDescription] so transports can send the
// bytes as an image instead of text.
type Media struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
	Text     string `json:"text,omitempty"`
}

// DecodeMedia reads back the output of a tool whose description has MediaOutput set.
func DecodeMedia(rendered string) (Media, error) {
	var m Media
	if err := json.Unmarshal([]byte(rendered), &m); err != nil {
		return Media{}, fmt.Errorf("failed to decode media output: %w", err)
	}
	if m.MIMEType == "" {
		return Media{}, fmt.Errorf("media output has no MIME type")
	}
	return m, nil
}
