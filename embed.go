package closeenough

import (
	_ "embed"
)

// Embed the default card pool
//
//go:embed static/cards.yaml
var DefaultCardsYAML []byte
