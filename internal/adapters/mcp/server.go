package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/core/ports"
)

const serverName = "tariff-resolver"

type Server struct {
	resolver ports.TariffResolver
	comparer ports.OriginComparer
	mcp      *server.MCPServer
}

func NewServer(resolver ports.TariffResolver, comparer ports.OriginComparer, version string) *Server {
	s := &Server{
		resolver: resolver,
		comparer: comparer,
		mcp:      server.NewMCPServer(serverName, version, server.WithToolCapabilities(false)),
	}
	s.mcp.AddTool(resolveTariffTool(), s.handleResolve)
	s.mcp.AddTool(compareOriginsTool(), s.handleCompare)
	return s
}

// ServeStdio blocks until stdin is closed.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func resolveTariffTool() mcp.Tool {
	return mcp.NewTool("resolve_tariff",
		mcp.WithDescription("Calculate EU import duty, VAT and regulatory alerts for a customs classification code. "+
			"Codes shorter than 10 digits may return candidate codes instead of a calculation."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Classification code, 2 to 10 digits; spaces and periods are ignored.")),
		mcp.WithNumber("cif_value", mcp.Required(), mcp.Description("Customs value (cost, insurance, freight) in EUR.")),
		mcp.WithString("country", mcp.Description("ISO 3166-1 alpha-2 origin country. Omit for the default erga omnes rate.")),
	)
}

func compareOriginsTool() mcp.Tool {
	return mcp.NewTool("compare_origins",
		mcp.WithDescription("Compare the landed cost of one classification code across several origin countries, cheapest first."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Classification code, 2 to 10 digits.")),
		mcp.WithNumber("cif_value", mcp.Required(), mcp.Description("Customs value in EUR.")),
		mcp.WithArray("countries", mcp.Required(), mcp.WithStringItems(), mcp.Description("ISO alpha-2 origin countries to compare.")),
	)
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cif, err := request.RequireFloat("cif_value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolution, err := s.resolver.Resolve(ctx, domain.ResolveRequest{
		Code:     code,
		CIFValue: decimal.NewFromFloat(cif),
		Country:  request.GetString("country", ""),
	})
	if err != nil {
		return toolError("resolve_tariff", err), nil
	}
	return jsonResult(resolution)
}

func (s *Server) handleCompare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cif, err := request.RequireFloat("cif_value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	comparison, err := s.comparer.CompareOrigins(ctx, code, decimal.NewFromFloat(cif), request.GetStringSlice("countries", nil))
	if err != nil {
		return toolError("compare_origins", err), nil
	}
	return jsonResult(comparison)
}

func toolError(tool string, err error) *mcp.CallToolResult {
	if domain.KindOf(err) == domain.ErrDataStore {
		slog.Error("mcp_tool_failed", "tool", tool, "error", err)
	}
	return mcp.NewToolResultError(domain.PublicMessage(err))
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
