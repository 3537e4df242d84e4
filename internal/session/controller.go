package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rag-file-chatbot/backend/internal/conversation"
	"github.com/rag-file-chatbot/backend/internal/events"
	"github.com/rag-file-chatbot/backend/internal/extract"
	"github.com/rag-file-chatbot/backend/internal/llm"
	"github.com/rag-file-chatbot/backend/internal/models"
)

// DefaultMaxQueryChars bounds the length of a single query.
const DefaultMaxQueryChars = 10000

var (
	ErrBusy         = errors.New("session is waiting for a completion")
	ErrQueryTooLong = errors.New("query is too long")
	ErrNotFound     = errors.New("session not found")
)

// FileStore gives a controller access to the bytes of uploaded files.
type FileStore interface {
	ReadFile(id string) ([]byte, error)
	Delete(id string) error
}

// Config holds what every controller of a manager shares.
type Config struct {
	Dispatcher    *Dispatcher
	Chat          llm.Client
	Files         FileStore
	Events        events.Publisher
	Logger        *slog.Logger
	MaxQueryChars int
}

// Controller drives one chat session: it owns the current file selection and
// the conversation history.
type Controller struct {
	id        string
	createdAt time.Time
	cfg       Config
	logger    *slog.Logger
	history   *conversation.History

	mu     sync.Mutex
	status models.SessionStatus
	files  []models.FileInfo
}

// NewController creates an idle session with no files.
func NewController(id string, cfg Config) *Controller {
	if cfg.Events == nil {
		cfg.Events = events.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxQueryChars <= 0 {
		cfg.MaxQueryChars = DefaultMaxQueryChars
	}
	return &Controller{
		id:        id,
		createdAt: time.Now(),
		cfg:       cfg,
		logger:    cfg.Logger.With("session", id),
		history:   conversation.NewHistory(),
		status:    models.SessionStatusIdle,
	}
}

func (c *Controller) ID() string { return c.id }

// Status returns the current state.
func (c *Controller) Status() models.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Files returns the current file selection.
func (c *Controller) Files() []models.FileInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.FileInfo, len(c.files))
	copy(out, c.files)
	return out
}

// Turns returns a snapshot of the conversation.
func (c *Controller) Turns() []models.Turn {
	return c.history.Turns()
}

// Info summarizes the session.
func (c *Controller) Info() models.SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	files := make([]models.FileInfo, len(c.files))
	copy(files, c.files)
	return models.SessionInfo{
		ID:        c.id,
		Status:    c.status,
		Files:     files,
		TurnCount: c.history.Len(),
		CreatedAt: c.createdAt,
	}
}

// UploadFiles replaces the file selection. Any change, including a
// re-upload of the same documents, clears the conversation. It reports
// whether the selection changed.
func (c *Controller) UploadFiles(newSet []models.FileInfo) (bool, error) {
	c.mu.Lock()
	if c.status != models.SessionStatusIdle {
		c.mu.Unlock()
		return false, ErrBusy
	}
	if models.SameFileSet(c.files, newSet) {
		c.mu.Unlock()
		return false, nil
	}
	previous := c.files
	c.files = make([]models.FileInfo, len(newSet))
	copy(c.files, newSet)
	c.history.Clear()
	files := make([]models.FileInfo, len(newSet))
	copy(files, newSet)
	c.mu.Unlock()

	c.removeFiles(previous, newSet)
	c.logger.Info("file set replaced", "files", len(newSet))

	ev := events.New(events.TypeFilesReplaced, c.id)
	ev.Files = files
	c.cfg.Events.Publish(ev)
	c.cfg.Events.Publish(events.New(events.TypeHistoryCleared, c.id))
	return true, nil
}

// Send records query, summarizes the current files and asks the model to
// answer using the whole conversation. An empty query does nothing. On a
// failed model call the error is returned and the query's turn keeps its
// placeholder.
func (c *Controller) Send(ctx context.Context, query string) error {
	if query == "" {
		return nil
	}
	if utf8.RuneCountInString(query) > c.cfg.MaxQueryChars {
		return fmt.Errorf("%w: limit is %d characters", ErrQueryTooLong, c.cfg.MaxQueryChars)
	}

	c.mu.Lock()
	if c.status != models.SessionStatusIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.status = models.SessionStatusAwaitingCompletion
	files := make([]models.FileInfo, len(c.files))
	copy(files, c.files)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.status = models.SessionStatusIdle
		c.mu.Unlock()
	}()

	start := time.Now()
	pending := c.history.AppendPending(query)
	c.publishTurn(events.TypeTurnAppended, pending)

	if len(files) > 0 {
		sink := &placeholderSink{c: c, at: pending}
		if _, err := c.cfg.Dispatcher.Process(ctx, c.loadFiles(files), sink); err != nil {
			c.logger.Error("file processing failed", "error", err)
			return err
		}
		pending = sink.at
	}

	messages := llm.UserMessages(append(c.history.UserMessages(), query)...)
	reply, err := c.cfg.Chat.Complete(ctx, messages)
	if err != nil {
		c.logger.Error("completion failed", "error", err)
		return err
	}
	if err := c.history.Resolve(pending, reply); err != nil {
		return err
	}
	c.publishTurn(events.TypeTurnResolved, pending)
	c.logger.Info("query answered", "turns", c.history.Len(), "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// Close releases the session's uploaded files.
func (c *Controller) Close() {
	c.mu.Lock()
	files := c.files
	c.files = nil
	c.mu.Unlock()
	c.removeFiles(files, nil)
}

func (c *Controller) loadFiles(files []models.FileInfo) []extract.File {
	out := make([]extract.File, 0, len(files))
	for _, f := range files {
		data, err := c.cfg.Files.ReadFile(f.ID)
		if err != nil {
			c.logger.Warn("uploaded file unavailable", "file", f.Name, "error", err)
			continue
		}
		out = append(out, extract.File{Name: f.Name, MIMEType: f.MIMEType, Data: data})
	}
	return out
}

// removeFiles deletes stored files of old that are not part of keep.
func (c *Controller) removeFiles(old, keep []models.FileInfo) {
	kept := make(map[string]bool, len(keep))
	for _, f := range keep {
		kept[f.ID] = true
	}
	for _, f := range old {
		if kept[f.ID] {
			continue
		}
		if err := c.cfg.Files.Delete(f.ID); err != nil {
			c.logger.Warn("removing replaced file", "file", f.Name, "error", err)
		}
	}
}

func (c *Controller) publishTurn(t events.Type, index int) {
	turn, ok := c.history.Turn(index)
	if !ok {
		return
	}
	ev := events.New(t, c.id)
	ev.Index = index
	ev.Turn = &turn
	c.cfg.Events.Publish(ev)
}

// placeholderSink inserts file turns ahead of the pending query turn so the
// query stays last.
type placeholderSink struct {
	c  *Controller
	at int
}

func (s *placeholderSink) AddTurn(user, assistant string) error {
	if err := s.c.history.Insert(s.at, user, assistant); err != nil {
		return err
	}
	s.c.publishTurn(events.TypeTurnAppended, s.at)
	s.at++
	return nil
}
