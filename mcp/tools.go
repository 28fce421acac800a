package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taskenti/topoguia"
)

// Tools generates guides for the tool calls, one Generator per template.
type Tools struct {
	gens map[topoguia.Template]*topoguia.Generator
	def  topoguia.Template
}

// NewTools creates a Generator for every template with opts. Calls that do
// not name a template use def.
func NewTools(def topoguia.Template, opts ...topoguia.Option) (*Tools, error) {
	t := &Tools{gens: make(map[topoguia.Template]*topoguia.Generator), def: def}
	for _, info := range topoguia.Templates() {
		g, err := topoguia.New(append(opts[:len(opts):len(opts)], topoguia.WithTemplate(info.Name))...)
		if err != nil {
			return nil, err
		}
		t.gens[info.Name] = g
	}
	if _, ok := t.gens[def]; !ok {
		return nil, fmt.Errorf("%w: %q", topoguia.ErrUnknownTemplate, def)
	}
	return t, nil
}

// Register adds the guide tools to the server.
func (t *Tools) Register(s *Server) {
	s.AddTool(t.generateTool())
	s.AddTool(validateTool())
	s.AddTool(listTemplatesTool())
}

var fieldSetSchema = map[string]any{
	"fields": map[string]any{
		"type":        "object",
		"description": "Scalar fields by key (route_code, route_name, distance, time, description, url, ...). See topoguia://fields.",
	},
	"images": map[string]any{
		"type":        "object",
		"description": "Base64 image data by slot (banner, map, profile, mide, logo)",
	},
	"imagePaths": map[string]any{
		"type":        "object",
		"description": "Image file paths by slot, as an alternative to images",
	},
	"photos": map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "Base64 data of additional photos, in order",
	},
	"photoPaths": map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "File paths of additional photos, in order",
	},
}

func withProperties(extra map[string]any) map[string]any {
	props := make(map[string]any, len(fieldSetSchema)+len(extra))
	for k, v := range fieldSetSchema {
		props[k] = v
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

func (t *Tools) generateTool() Tool {
	return Tool{
		Name:        "generate_topoguia",
		Description: "Lay out a trail guide (topoguía) from route fields and images and return the PDF as base64, or write it to outputPath.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": withProperties(map[string]any{
				"template": map[string]any{
					"type":        "string",
					"enum":        []string{"portrait", "columns", "landscape"},
					"description": "Page template. Defaults to the server's template.",
				},
				"outputPath": map[string]any{
					"type":        "string",
					"description": "Optional file or directory path to save the PDF. If omitted, returns base64.",
				},
			}),
			"required": []string{"fields"},
		},
		Handler: t.handleGenerate,
	}
}

func (t *Tools) handleGenerate(ctx context.Context, args map[string]any) (ToolResult, error) {
	name := t.def
	if s, ok := args["template"].(string); ok && s != "" {
		parsed, err := topoguia.ParseTemplate(s)
		if err != nil {
			return ToolResult{}, err
		}
		name = parsed
	}

	fs, err := fieldSet(args)
	if err != nil {
		return ToolResult{}, err
	}
	res, err := t.gens[name].Generate(ctx, fs)
	if err != nil {
		return ToolResult{}, err
	}

	var summary strings.Builder
	fmt.Fprintf(&summary, "%s: %d page(s), %d bytes", res.Filename, res.Pages, len(res.Data))
	for _, w := range res.Warnings {
		fmt.Fprintf(&summary, "\nwarning: %s", w)
	}

	if outputPath, ok := args["outputPath"].(string); ok && outputPath != "" {
		if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
			outputPath = filepath.Join(outputPath, res.Filename)
		}
		if err := os.WriteFile(outputPath, res.Data, 0o644); err != nil {
			return ToolResult{}, fmt.Errorf("writing file: %w", err)
		}
		return ToolResult{
			Content: []ContentBlock{{
				Type: "text",
				Text: fmt.Sprintf("Guide created successfully: %s\n%s", outputPath, summary.String()),
			}},
		}, nil
	}

	encoded := base64.StdEncoding.EncodeToString(res.Data)
	return ToolResult{
		Content: []ContentBlock{{
			Type: "text",
			Text: fmt.Sprintf("Guide created successfully. %s\nBase64 data:\n%s", summary.String(), encoded),
		}},
	}, nil
}

func validateTool() Tool {
	return Tool{
		Name:        "validate_fieldset",
		Description: "Check route fields and images for the required entries and return the labels of the missing ones.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": withProperties(nil),
			"required":   []string{"fields"},
		},
		Handler: handleValidate,
	}
}

func handleValidate(_ context.Context, args map[string]any) (ToolResult, error) {
	fs, err := fieldSet(args)
	if err != nil {
		return ToolResult{}, err
	}
	missing := fs.Missing()
	if missing == nil {
		missing = []string{}
	}
	return jsonResult(map[string]any{"valid": len(missing) == 0, "missing": missing})
}

func listTemplatesTool() Tool {
	return Tool{
		Name:        "list_templates",
		Description: "List the page templates a guide can be laid out with.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: func(context.Context, map[string]any) (ToolResult, error) {
			return jsonResult(topoguia.Templates())
		},
	}
}

func jsonResult(v any) (ToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ToolResult{}, err
	}
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: string(data)}}}, nil
}

// fieldSet builds a FieldSet from the tool arguments.
func fieldSet(args map[string]any) (*topoguia.FieldSet, error) {
	fs := topoguia.NewFieldSet()

	fields, _ := args["fields"].(map[string]any)
	for k, v := range fields {
		f, err := topoguia.ParseField(k)
		if err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case string:
			fs.Set(f, v)
		case float64:
			fs.Set(f, strings.Replace(fmt.Sprint(v), ".", ",", 1))
		case nil:
		default:
			return nil, fmt.Errorf("field %q: unsupported value %T", k, v)
		}
	}

	if err := eachSlot(args, "images", func(s topoguia.Slot, v string) error {
		data, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return fmt.Errorf("image %q: %w", s, err)
		}
		fs.SetImage(s, data)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := eachSlot(args, "imagePaths", func(s topoguia.Slot, v string) error {
		data, err := os.ReadFile(v)
		if err != nil {
			return fmt.Errorf("image %q: %w", s, err)
		}
		fs.SetImage(s, data)
		return nil
	}); err != nil {
		return nil, err
	}

	photos, _ := args["photos"].([]any)
	for i, p := range photos {
		s, _ := p.(string)
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("photo %d: %w", i+1, err)
		}
		fs.AddPhoto(data)
	}
	paths, _ := args["photoPaths"].([]any)
	for i, p := range paths {
		s, _ := p.(string)
		data, err := os.ReadFile(s)
		if err != nil {
			return nil, fmt.Errorf("photo %d: %w", i+1, err)
		}
		fs.AddPhoto(data)
	}
	return fs, nil
}

func eachSlot(args map[string]any, key string, fn func(topoguia.Slot, string) error) error {
	m, _ := args[key].(map[string]any)
	for k, v := range m {
		s, err := topoguia.ParseSlot(k)
		if err != nil {
			return err
		}
		str, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s.%s: want a string, got %T", key, k, v)
		}
		if err := fn(s, str); err != nil {
			return err
		}
	}
	return nil
}
