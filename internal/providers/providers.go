// Package providers defines the boundary to external content services and
// ships an OpenAI-compatible script generator as the reference client.
package providers

import (
	"context"
)

// ScriptGenerator produces a narration script for a topic.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, req ScriptRequest) (string, error)
}

// ImageGenerator produces image bytes for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// SpeechSynthesizer turns a script into audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, script string) ([]byte, error)
}

// Publisher uploads a finished video to a platform.
type Publisher interface {
	Publish(ctx context.Context, video PublishRequest) (string, error)
}

// ScriptRequest describes one script generation call.
type ScriptRequest struct {
	// Topic is what the script should be about.
	Topic string

	// Language of the generated script, e.g. "en". Empty means English.
	Language string

	// Sentences bounds the script length. Zero means the provider default.
	Sentences int
}

// PublishRequest describes one upload.
type PublishRequest struct {
	Title       string
	Description string
	FilePath    string
	Tags        []string
}
