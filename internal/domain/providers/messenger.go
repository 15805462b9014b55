package providers

import "context"

// Messenger delivers outbound text messages to a client's phone
type Messenger interface {
	// SendText sends body to the recipient and returns the provider message ID
	SendText(ctx context.Context, to, body string) (string, error)
}
