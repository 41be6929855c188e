// Package analysis provides the client for the AI image-analysis endpoint
// (an OpenRouter-compatible chat completion API).
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.AnalyzeImage: send a recipe photo as an image_url content part and
// receive plain recipe text written for the requested servings.
// Client.Rescale: send recipe text and receive it rewritten for a new
// servings count.
//
// Both calls return a Result rather than an error so callers can surface
// Result.Error directly; Result.Cause keeps the classified error for logging.
//
// # Response Shapes
//
// choices[0].message.content (string or parts, also delta/text), then an
// {"analysis": "..."} object, then a bare JSON string, then a plain-text body.
// Anything else is reported as a malformed response.
//
// # Retry Behaviour
//
// A single attempt is made by default. When analysis.retry_attempts is raised
// the client retries HTTP 408/429/5xx, malformed responses and network
// timeouts with exponential backoff (base 1s, max 10s). Context cancellation
// aborts retries immediately.
package analysis
