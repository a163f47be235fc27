package mcpserver

import (
	"context"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/proboscis/claude-block-checker/internal/blocks"
	"github.com/proboscis/claude-block-checker/internal/profiles"
)

// Source is what the tools read from; *app.Checker satisfies it.
type Source interface {
	Profiles() ([]profiles.Profile, error)
	Check(ctx context.Context, name string) (blocks.SummaryReport, error)
}

// NewServer creates an MCP server exposing the block tools over src.
func NewServer(src Source, version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "claude-block-checker",
			Version: version,
		},
		nil,
	)
	registerTools(server, src)
	return server
}

// RunServer serves the tools over stdio until ctx is cancelled or the
// client disconnects.
func RunServer(ctx context.Context, src Source, version string) error {
	return NewServer(src, version).Run(ctx, &mcpsdk.StdioTransport{})
}

// HTTPHandler serves server over the streamable HTTP transport.
func HTTPHandler(server *mcpsdk.Server) http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return server
	}, nil)
}
