package provider

// Payload is one request body for the provider's send endpoints. The two
// variants share this contract so the composer and the client agree on what
// a send looks like without untyped maps.
type Payload interface {
	// Endpoint returns the provider path the payload must be posted to.
	Endpoint() string
}

// TextPayload is the body for POST {base}/chat/send/text.
type TextPayload struct {
	Phone string `json:"Phone"`
	Body  string `json:"Body"`
}

// Endpoint implements Payload.
func (TextPayload) Endpoint() string { return "/chat/send/text" }

// DocumentPayload is the body for POST {base}/chat/send/document.
type DocumentPayload struct {
	Phone    string `json:"Phone"`
	Document string `json:"Document"`
	Caption  string `json:"Caption"`
	FileName string `json:"FileName"`
}

// Endpoint implements Payload.
func (DocumentPayload) Endpoint() string { return "/chat/send/document" }
