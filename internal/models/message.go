package models

import "time"

type Sender string

const (
	SenderBot  Sender = "bot"
	SenderUser Sender = "user"
)

// Message is one entry of the chat log. Messages are only ever appended.
type Message struct {
	ID        int64     `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Time      string    `json:"time"`
	ShowQR    bool      `json:"show_qr,omitempty"`
	IsImage   bool      `json:"is_image,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
