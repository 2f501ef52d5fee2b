// Package llm provides an OpenRouter-compatible chat client used to caption
// images for the image describer.
//
// # Captioning
//
// Caption sends the image as a data URL inside a multimodal user message and
// asks for {"caption": "..."}. Models that answer in prose instead of JSON are
// tolerated; the trimmed text becomes the caption.
//
// # Configuration
//
// Requires api_key and model, optionally base_url, referer, title, prompt and
// timeout_seconds.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Caption: caption one image.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and network
// timeouts with exponential backoff (base 1s, max 10s, up to 3 attempts by
// default). Context cancellation aborts retries immediately.
package llm
