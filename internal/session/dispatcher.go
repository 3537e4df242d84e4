package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rag-file-chatbot/backend/internal/extract"
	"github.com/rag-file-chatbot/backend/internal/llm"
	"github.com/rag-file-chatbot/backend/internal/prompts"
)

// TurnSink receives the turns produced while processing files.
type TurnSink interface {
	AddTurn(user, assistant string) error
}

// ProfileSource provides the active prompt profile.
type ProfileSource interface {
	Current() *prompts.Profile
}

// Dispatcher routes each uploaded file to the extractor for its MIME type and
// records a model-written summary of every file that yielded text.
type Dispatcher struct {
	registry *extract.Registry
	text     llm.Client
	vision   llm.Client
	profiles ProfileSource
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher. Image summaries go to vision, all other
// kinds to text.
func NewDispatcher(registry *extract.Registry, text, vision llm.Client, profiles ProfileSource, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		text:     text,
		vision:   vision,
		profiles: profiles,
		logger:   logger,
	}
}

// Process extracts every file in order and reports whether any of them
// produced text. Files of unknown type are skipped and unreadable files count
// as producing nothing. When nothing was found a single fallback turn is
// recorded. A failed model call aborts processing.
func (d *Dispatcher) Process(ctx context.Context, files []extract.File, sink TurnSink) (bool, error) {
	profile := d.profiles.Current()
	found := false

	for _, f := range files {
		e, ok := d.registry.Lookup(f.MIMEType)
		if !ok {
			d.logger.Debug("skipping unsupported file", "name", f.Name, "mime", f.MIMEType)
			continue
		}
		kind := string(e.Kind())

		res, err := e.Extract(ctx, f)
		if err != nil {
			if ctx.Err() != nil {
				return found, ctx.Err()
			}
			d.logger.Warn("extraction failed", "name", f.Name, "kind", kind, "error", err)
			continue
		}

		if !res.Found() {
			if res.Notice != "" {
				if err := sink.AddTurn("", profile.Notice(res.Notice)); err != nil {
					return found, err
				}
			}
			d.logger.Info("no text in file", "name", f.Name, "kind", kind)
			continue
		}

		client := d.text
		if e.Kind() == extract.KindImage {
			client = d.vision
		}
		reply, err := client.Complete(ctx, llm.UserMessages(profile.Prompt(kind, res.Text)))
		if err != nil {
			return found, fmt.Errorf("summarizing %s: %w", f.Name, err)
		}
		if err := sink.AddTurn(profile.Label(kind), reply); err != nil {
			return found, err
		}
		found = true
		d.logger.Info("file summarized", "name", f.Name, "kind", kind, "chars", len(res.Text))
	}

	if !found {
		if err := sink.AddTurn("", profile.Notice(prompts.NoticeNoMatch)); err != nil {
			return false, err
		}
	}
	return found, nil
}
