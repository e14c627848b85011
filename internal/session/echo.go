package session

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/avelkine/edushelf/internal/entities"
)

// EchoNotifier POSTs registration payloads to a generic echo-style endpoint.
// This is the demo variant of registration: the local registry stays
// authoritative, the echo is informational only and runs fire-and-forget.
type EchoNotifier struct {
	httpClient *http.Client
	url        string
}

func NewEchoNotifier(url string) *EchoNotifier {
	return &EchoNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		url:        url,
	}
}

// Notify sends the public user fields to the echo endpoint in the background.
func (n *EchoNotifier) Notify(user entities.PublicUser) {
	go func() {
		payload, err := json.Marshal(user)
		if err != nil {
			log.Printf("Registration echo: failed to serialize payload: %v", err)
			return
		}

		resp, err := n.httpClient.Post(n.url, "application/json", bytes.NewReader(payload))
		if err != nil {
			log.Printf("Registration echo: %v", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			log.Printf("Registration echo: unexpected status %d", resp.StatusCode)
		}
	}()
}
