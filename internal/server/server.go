// Package server exposes the knowledge tree over the Model Context Protocol.
// The server speaks stdio only; log output goes to the configured logger,
// never to stdout.
package server

import (
	"context"
	"encoding/json"
	"errors"

	"codetree/internal/config"
	"codetree/internal/knowledge"
	"codetree/internal/store"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

const serverName = "codetree"

// Server wires the element store to the MCP transport.
type Server struct {
	mcpServer *mcp.Server
	store     *store.Store
	cfg       *config.Config
	logger    *logrus.Logger
	version   string
}

// New builds a server around an open store. Tools and resources are
// registered immediately; nothing is served until Run.
func New(st *store.Store, cfg *config.Config, logger *logrus.Logger, version string) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		store:   st,
		cfg:     cfg,
		logger:  logger,
		version: version,
	}
	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: version,
	}, nil)

	s.registerTools()
	s.registerResources()
	return s
}

// Run serves MCP over stdio until the client disconnects or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.WithField("version", s.version).Info("Serving knowledge tree over stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// textResult wraps plain text in a successful tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// jsonResult renders v as indented JSON inside a successful tool result.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(knowledge.IOFailure(err, "failed to encode result"))
	}
	return textResult(string(data))
}

// toolError is the error payload crossing the tool boundary.
type toolError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// errorResult maps err to a {kind, message} payload in an IsError result.
// Domain errors keep their kind; anything else is reported as io_failure,
// except the plain validation errors the store returns for bad arguments.
func errorResult(err error) *mcp.CallToolResult {
	payload := toolError{Kind: knowledge.KindIOFailure.String(), Message: err.Error()}

	var domainErr *knowledge.Error
	switch {
	case errors.As(err, &domainErr):
		payload.Kind = domainErr.Kind.String()
	case errors.Is(err, store.ErrNoFields):
		payload.Kind = "invalid_argument"
	}

	data, marshalErr := json.MarshalIndent(payload, "", "  ")
	if marshalErr != nil {
		data = []byte(payload.Message)
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

// validationError reports a bad argument that never reached the store.
func validationError(message string) *mcp.CallToolResult {
	data, err := json.MarshalIndent(toolError{Kind: "invalid_argument", Message: message}, "", "  ")
	if err != nil {
		data = []byte(message)
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}
