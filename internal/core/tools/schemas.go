package tools

import (
	"github.com/romgenie/scope-agent/internal/core/assistant"
	"github.com/romgenie/scope-agent/internal/core/models"
)

func suggestionItemSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":            map[string]any{"type": "string", "description": "Unique identifier for the suggestion"},
			"text":          map[string]any{"type": "string", "description": "Display text of the suggestion"},
			"description":   map[string]any{"type": "string", "description": "Optional elaboration on the suggestion"},
			"best_practice": map[string]any{"type": "string", "description": "Optional best-practice note"},
		},
		"required": []string{"text"},
	}
}

func categoryEnum() []string {
	enum := make([]string, 0, len(models.RequiredCategories)+1)
	for _, c := range models.RequiredCategories {
		enum = append(enum, string(c))
	}
	return append(enum, string(models.CategoryBestPractice))
}

// Definitions returns the fixed tool set advertised to the remote service.
func Definitions() []assistant.ToolDefinition {
	return []assistant.ToolDefinition{
		{
			Name:        string(toolSaveScope),
			Description: "Save the final project scope document",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"scope": map[string]any{
						"type":        "object",
						"description": "Map of scope category to collected value",
					},
				},
				"required": []string{"scope"},
			},
		},
		{
			Name:        string(toolGenerateProjectNames),
			Description: "Generate project name suggestions based on project description",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"project_description": map[string]any{"type": "string"},
					"suggestions": map[string]any{
						"type":  "array",
						"items": suggestionItemSchema(),
					},
					"allow_custom_input": map[string]any{"type": "boolean", "default": true},
				},
				"required": []string{"project_description", "suggestions"},
			},
		},
		{
			Name:        string(toolGenerateSuggestions),
			Description: "Generate structured suggestions for various project aspects",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"category": map[string]any{"type": "string", "enum": categoryEnum()},
					"question": map[string]any{"type": "string"},
					"suggestions": map[string]any{
						"type":  "array",
						"items": suggestionItemSchema(),
					},
					"allow_custom_input": map[string]any{"type": "boolean", "default": true},
				},
				"required": []string{"category", "question", "suggestions"},
			},
		},
	}
}
