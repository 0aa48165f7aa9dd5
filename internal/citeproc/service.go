package citeproc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dshills/citemark/internal/logging"
)

// Invoker delivers an envelope to a provider and returns the JSON result.
// A get-citation result is a markup string, or null when a key is unknown.
type Invoker interface {
	Invoke(ctx context.Context, env Envelope) (json.RawMessage, error)
}

// Service is an in-process provider backed by a Library.
type Service struct {
	lib       *Library
	formatter Formatter
	logger    *logging.Logger
}

// NewService creates a provider. A nil formatter selects AuthorDate.
func NewService(lib *Library, formatter Formatter, logger *logging.Logger) *Service {
	if formatter == nil {
		formatter = AuthorDate{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{lib: lib, formatter: formatter, logger: logger.WithComponent("citeproc")}
}

// Library returns the backing library.
func (s *Service) Library() *Library {
	return s.lib
}

// Invoke implements Invoker.
func (s *Service) Invoke(ctx context.Context, env Envelope) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch env.Command {
	case CommandGetCitation:
		req, err := ParseRequest(env.Payload)
		if err != nil {
			return nil, err
		}
		markup, found, err := s.Citation(req)
		if err != nil || !found {
			return json.RawMessage("null"), err
		}
		return json.Marshal(markup)

	case CommandGetBibliography:
		markup, err := s.Bibliography(ParseKeys(env.Payload))
		if err != nil {
			return nil, err
		}
		return json.Marshal(markup)

	case CommandReload:
		if err := s.lib.Load(); err != nil {
			s.logger.Warn("reload: %v", err)
			return nil, err
		}
		s.logger.Info("reloaded %d entries", s.lib.Len())
		return json.RawMessage("true"), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Command)
}

// Citation renders one citation. found is false when any key is missing
// from the library.
func (s *Service) Citation(req Request) (markup string, found bool, err error) {
	items := req.items()
	if len(items) == 0 {
		return "", false, nil
	}
	cites := make([]Cited, 0, len(items))
	for _, it := range items {
		e, ok := s.lib.Lookup(it.ID)
		if !ok {
			s.logger.WithField("key", it.ID).Debug("unknown citation key")
			return "", false, nil
		}
		cites = append(cites, Cited{Item: it, Entry: e})
	}
	markup, err = s.formatter.FormatCitation(cites, req.Composite)
	if err != nil {
		return "", false, fmt.Errorf("format citation: %w", err)
	}
	return markup, true, nil
}

// Bibliography renders entries for keys, or for the whole library when
// keys is empty. Unknown keys are skipped.
func (s *Service) Bibliography(keys []string) (string, error) {
	if len(keys) == 0 {
		keys = s.lib.Keys()
	}
	seen := make(map[string]bool, len(keys))
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		if e, ok := s.lib.Lookup(k); ok {
			entries = append(entries, e)
		}
	}
	return s.formatter.FormatBibliography(entries)
}
