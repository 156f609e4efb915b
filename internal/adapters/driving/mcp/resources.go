package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for manualqa resources.
	uriScheme = "manualqa://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "Vector collections in the store",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Identifiers of documents with fused pages",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/pages",
		Name:        "document-pages",
		Description: "Fused text of every page of a document",
		MIMEType:    "application/json",
	}, s.handlePagesResource)
}

// handleCollectionsResource returns the collection names.
func (s *Server) handleCollectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	names := []string{}
	if s.ports.Collections != nil {
		list, err := s.ports.Collections.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing collections: %w", err)
		}
		names = append(names, list...)
	}
	return jsonResource(req.Params.URI, names)
}

// handleDocumentsResource returns the document identifiers.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	ids := []string{}
	if s.ports.Documents != nil {
		list, err := s.ports.Documents.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}
		ids = append(ids, list...)
	}
	return jsonResource(req.Params.URI, ids)
}

// handlePagesResource returns the fused pages of one document.
func (s *Server) handlePagesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// manualqa://documents/{documentId}/pages
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	units, err := s.ports.Documents.Pages(ctx, docID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("reading pages: %w", err)
	}

	type pageInfo struct {
		Page int    `json:"page"`
		Text string `json:"text"`
	}
	pages := make([]pageInfo, len(units))
	for i, u := range units {
		pages[i] = pageInfo{Page: u.Page, Text: u.Text}
	}
	return jsonResource(req.Params.URI, pages)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the id from manualqa://documents/{documentId}/pages.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"
	const suffix = "/pages"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
