// Package tools implements the 14 tool operations exposed to the external
// collaborator: thin dispatch functions over the addressing
// system, document cache, document manager, template checker, and
// reference loader. No tool function touches the filesystem directly —
// every read or write routes through internal/docmanager, and every raw
// input is canonicalized through internal/address before use.
package tools

import (
	"go.uber.org/zap"

	"github.com/nota-kb/docserver/internal/address"
	"github.com/nota-kb/docserver/internal/docmanager"
	"github.com/nota-kb/docserver/internal/reference"
)

// Registry is the shared dependency set every tool function closes over.
// Construct one per process and call its methods from the transport layer
// (cmd/docserver's MCP and CLI surfaces both share the same Registry).
type Registry struct {
	Manager   *docmanager.Manager
	Addresses *address.Cache
	Loader    *reference.Loader
	Logger    *zap.Logger
}

// New constructs a Registry over already-wired components.
func New(m *docmanager.Manager, addrs *address.Cache, loader *reference.Loader, logger *zap.Logger) *Registry {
	return &Registry{Manager: m, Addresses: addrs, Loader: loader, Logger: logger}
}

// ErrorResponse is the typed shape every failed tool call returns.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}
