package model

// FallbackInput is what the fallback responder graph is invoked with.
type FallbackInput struct {
	SenderID string
	// Reason is "out_of_scope" or "default_fallback".
	Reason     string
	Message    string
	Transcript []Turn
}

// FallbackState stores per-invocation state for the fallback graph.
// It is registered with compose.WithGenLocalState and only touched inside
// state handlers, which eino serialises.
type FallbackState struct {
	SenderID     string
	Model        string
	TotalCostUSD float64
}
