package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs.
const (
	CrateURIPrefix = "crate://"
	StatusURI      = "panamax://status"
)

// CrateResource is the JSON body of a crate:// resource.
type CrateResource struct {
	Name           string `json:"name"`
	LatestVersion  string `json:"latest_version,omitempty"`
	LatestYanked   string `json:"latest_yanked,omitempty"`
	Description    string `json:"description,omitempty"`
	HasDescription bool   `json:"has_description"`
	AllYanked      bool   `json:"all_yanked"`
}

func (s *Server) registerResources() {
	s.mcp.AddResourceTemplate(
		&mcp.ResourceTemplate{
			Name:        "crate",
			URITemplate: CrateURIPrefix + "{name}",
			Description: "Latest versions and description of a mirrored crate",
			MIMEType:    "application/json",
		},
		s.handleReadCrate,
	)

	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "index_status",
			URI:         StatusURI,
			Description: "Mirror and search cache status",
			MIMEType:    "application/json",
		},
		s.handleReadStatus,
	)
}

func (s *Server) handleReadCrate(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	name := strings.TrimPrefix(uri, CrateURIPrefix)
	if name == uri || name == "" {
		return nil, NewResourceNotFoundError(uri)
	}

	idx, err := s.Index(ctx)
	if err != nil {
		return nil, MapError(err)
	}
	r, ok := idx.Lookup(name)
	if !ok {
		return nil, NewResourceNotFoundError(uri)
	}

	body := CrateResource{
		Name:           r.Name,
		Description:    r.DescriptionText(),
		HasDescription: r.Description != nil,
		AllYanked:      r.LatestNonYanked == nil,
	}
	if r.LatestNonYanked != nil {
		body.LatestVersion = r.LatestNonYanked.String()
	}
	if r.LatestYanked != nil {
		body.LatestYanked = r.LatestYanked.String()
	}
	return jsonResource(uri, body)
}

func (s *Server) handleReadStatus(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(StatusURI, s.status())
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}
