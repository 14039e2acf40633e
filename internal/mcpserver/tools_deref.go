package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.yaml.in/yaml/v4"

	"github.com/jamesseanwright/json-schema-deref-sync/deref"
	"github.com/jamesseanwright/json-schema-deref-sync/loader"
)

type derefInput struct {
	File    string `json:"file,omitempty"     jsonschema:"Path to a JSON or YAML schema file on disk"`
	Content string `json:"content,omitempty"  jsonschema:"Inline schema document content (JSON or YAML)"`
	BaseDir string `json:"base_dir,omitempty" jsonschema:"Directory that relative external refs resolve against. Defaults to the directory of file"`
	Strict  *bool  `json:"strict,omitempty"   jsonschema:"Fail instead of reporting unresolvable references"`
	Format  string `json:"format,omitempty"   jsonschema:"Format of the returned document: json (default) or yaml (returned as text)"`
}

type derefOutput struct {
	Document any         `json:"document"`
	Missing  []string    `json:"missing,omitempty"`
	Stats    deref.Stats `json:"stats"`
}

func handleDeref(_ context.Context, _ *mcp.CallToolRequest, input derefInput) (*mcp.CallToolResult, derefOutput, error) {
	format := strings.ToLower(input.Format)
	switch format {
	case "", "json", "yaml":
	default:
		return errResult(fmt.Errorf("invalid format %q; valid values: json, yaml", input.Format)), derefOutput{}, nil
	}

	// Apply config defaults when input fields are omitted (nil).
	strict := cfg.FailOnMissing
	if input.Strict != nil {
		strict = *input.Strict
	}

	doc, base, err := docInput{File: input.File, Content: input.Content}.load()
	if err != nil {
		return errResult(err), derefOutput{}, nil
	}
	if input.BaseDir != "" {
		base = input.BaseDir
	}

	opts := []deref.Option{
		deref.WithLoaders(loader.Standard(cfg.FileRoot, registryDB)...),
		deref.WithFailOnMissing(strict),
		deref.WithMaxRefDepth(cfg.MaxRefDepth),
		deref.WithMaxCachedDocuments(cfg.MaxCachedDocuments),
		deref.WithLogger(deref.NewSlogAdapter(slog.Default())),
	}
	if base != "" {
		opts = append(opts, deref.WithBaseDir(base))
	}

	result, err := deref.DerefWithOptions(doc, opts...)
	if err != nil {
		return errResult(err), derefOutput{}, nil
	}

	output := derefOutput{
		Document: result.Document,
		Missing:  result.Missing,
		Stats:    result.Stats,
	}
	if format == "yaml" {
		data, err := yaml.Marshal(result.Document)
		if err != nil {
			return errResult(fmt.Errorf("encoding yaml: %w", err)), derefOutput{}, nil
		}
		output.Document = string(data)
	}
	return nil, output, nil
}
