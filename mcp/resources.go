package mcp

import (
	"encoding/json"

	"github.com/taskenti/topoguia"
)

// RegisterResources adds the template and field catalogues to the server.
func RegisterResources(s *Server) {
	s.AddResource(Resource{
		URI:         "topoguia://templates",
		Name:        "Guide templates",
		Description: "The page templates with their orientation and page count.",
		MIMEType:    "application/json",
		Handler: func(uri string) ([]ResourceContent, error) {
			return jsonContent(uri, topoguia.Templates())
		},
	})

	s.AddResource(Resource{
		URI:         "topoguia://fields",
		Name:        "Guide fields",
		Description: "The scalar fields and image slots of a guide, with labels and required flags.",
		MIMEType:    "application/json",
		Handler:     handleFieldsResource,
	})
}

type fieldEntry struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

func handleFieldsResource(uri string) ([]ResourceContent, error) {
	var catalogue struct {
		Fields []fieldEntry `json:"fields"`
		Images []fieldEntry `json:"images"`
		Photos string       `json:"photos"`
	}
	for _, f := range topoguia.Fields() {
		catalogue.Fields = append(catalogue.Fields, fieldEntry{Key: string(f), Label: f.Label(), Required: f.Required()})
	}
	for _, s := range topoguia.Slots() {
		catalogue.Images = append(catalogue.Images, fieldEntry{Key: string(s), Label: s.Label(), Required: s.Required()})
	}
	catalogue.Photos = topoguia.PhotosLabel
	return jsonContent(uri, catalogue)
}

func jsonContent(uri string, v any) ([]ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(data),
	}}, nil
}
