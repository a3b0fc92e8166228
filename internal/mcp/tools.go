package mcp

import "github.com/Aman-CERP/panamax-search/internal/output"

// SearchCratesInput defines the input schema for the search_crates tool.
type SearchCratesInput struct {
	Queries       []string `json:"queries" jsonschema:"one or more regular expressions matched against crate names and descriptions"`
	CaseSensitive bool     `json:"case_sensitive,omitempty" jsonschema:"match names and descriptions case sensitively"`
	IncludeYanked bool     `json:"include_yanked,omitempty" jsonschema:"report the newest version even when it was yanked"`
	Limit         int      `json:"limit,omitempty" jsonschema:"maximum number of matches, default 50"`
}

// SearchCratesOutput defines the output schema for the search_crates tool.
type SearchCratesOutput struct {
	Total     int            `json:"total" jsonschema:"number of matches before the limit was applied"`
	Truncated bool           `json:"truncated" jsonschema:"true if matches were dropped by the limit"`
	Matches   []output.Match `json:"matches" jsonschema:"matches in tier order: exact, name, description"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Mirror     string `json:"mirror"`
	CachePath  string `json:"cache_path"`
	CacheFresh bool   `json:"cache_fresh"`
	CacheSize  int64  `json:"cache_size"`
	Reason     string `json:"reason,omitempty"` // why the cache is not fresh
	Loaded     bool   `json:"loaded"`           // index held in memory
	Packages   int    `json:"packages"`         // records in the loaded index
}

// RebuildIndexInput defines the input schema for the rebuild_index tool (no parameters).
type RebuildIndexInput struct{}

// RebuildIndexOutput defines the output schema for the rebuild_index tool.
type RebuildIndexOutput struct {
	Packages   int    `json:"packages"`
	CachePath  string `json:"cache_path"`
	CacheSaved bool   `json:"cache_saved"`
	Warning    string `json:"warning,omitempty"`
}
