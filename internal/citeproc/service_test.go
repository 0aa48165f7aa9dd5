package citeproc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/citemark/internal/citation"
)

func newTestService() *Service {
	lib := NewLibrary()
	lib.Add(doe, roe, many, anon)
	return NewService(lib, nil, nil)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	req := Request{
		Keys:      []string{"doe2020", "roe04"},
		Citations: []citation.Item{{ID: "doe2020", Prefix: "see", Locator: "33", Label: "page"}, {ID: "roe04", SuppressAuthor: true}},
	}
	env, err := CitationEnvelope(req)
	if err != nil {
		t.Fatalf("CitationEnvelope() error = %v", err)
	}
	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	parsed, err := ParseEnvelope(data)
	if err != nil {
		t.Fatalf("ParseEnvelope() error = %v", err)
	}
	if parsed.Command != CommandGetCitation {
		t.Errorf("Command = %q, want %q", parsed.Command, CommandGetCitation)
	}
	got, err := ParseRequest(parsed.Payload)
	if err != nil {
		t.Fatalf("ParseRequest() error = %v", err)
	}
	if diff := cmp.Diff(req, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEnvelopeErrors(t *testing.T) {
	for _, in := range []string{`nope`, `{}`, `{"command": 3}`} {
		if _, err := ParseEnvelope([]byte(in)); !errors.Is(err, ErrInvalidEnvelope) {
			t.Errorf("ParseEnvelope(%s) error = %v, want ErrInvalidEnvelope", in, err)
		}
	}
}

func TestServiceCitation(t *testing.T) {
	client := NewClient(newTestService())
	ctx := context.Background()

	tests := []struct {
		name      string
		req       Request
		wantFound bool
		want      string
	}{
		{"known key", Request{Keys: []string{"doe2020"}}, true, "(Doe 2020)"},
		{"composite", Request{Keys: []string{"roe04"}, Composite: true}, true, "Roe and Poe (2004)"},
		{"unknown key", Request{Keys: []string{"doe2020", "nobody"}}, false, ""},
		{"no keys", Request{}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := client.Citation(ctx, tt.req)
			if err != nil {
				t.Fatalf("Citation() error = %v", err)
			}
			if found != tt.wantFound || got != tt.want {
				t.Errorf("Citation() = %q, %v, want %q, %v", got, found, tt.want, tt.wantFound)
			}
		})
	}
}

func TestServiceBibliographyAndUnknownCommand(t *testing.T) {
	svc := newTestService()
	client := NewClient(svc)

	bib, err := client.Bibliography(context.Background(), []string{"doe2020", "doe2020", "nobody"})
	if err != nil {
		t.Fatalf("Bibliography() error = %v", err)
	}
	if strings.Count(bib, "csl-entry") != 1 {
		t.Errorf("Bibliography() = %q, want one entry", bib)
	}

	all, _ := client.Bibliography(context.Background(), nil)
	if strings.Count(all, "csl-entry") != 4 {
		t.Errorf("Bibliography(nil) has %d entries, want 4", strings.Count(all, "csl-entry"))
	}

	if _, err := svc.Invoke(context.Background(), Envelope{Command: "explode"}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Invoke(explode) error = %v, want ErrUnknownCommand", err)
	}
}

// pipePair connects a Remote to Serve through in-memory pipes.
func pipePair(t *testing.T, inv Invoker) *Remote {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, reqR, respW, inv, nil)
		respW.Close()
	}()

	remote := Connect(ctx, respR, reqW, nil)
	t.Cleanup(func() {
		remote.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return")
		}
	})
	return remote
}

func TestRemoteRoundTrip(t *testing.T) {
	remote := pipePair(t, newTestService())
	client := NewClient(remote)
	ctx := context.Background()

	got, found, err := client.Citation(ctx, Request{Keys: []string{"many"}})
	if err != nil || !found || got != "(Alpha et al. 2011)" {
		t.Errorf("Citation() = %q, %v, %v", got, found, err)
	}

	_, found, err = client.Citation(ctx, Request{Keys: []string{"nobody"}})
	if err != nil || found {
		t.Errorf("Citation(unknown) found = %v, err = %v, want false, nil", found, err)
	}

	_, err = remote.Invoke(ctx, Envelope{Command: "explode"})
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != CodeMethodNotFound {
		t.Errorf("Invoke(explode) error = %v, want RPC method-not-found", err)
	}
}

type blockingInvoker struct{ release chan struct{} }

func (b blockingInvoker) Invoke(ctx context.Context, env Envelope) (json.RawMessage, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return json.RawMessage(`"late"`), nil
}

func TestRemoteCallHonoursContext(t *testing.T) {
	inv := blockingInvoker{release: make(chan struct{})}
	defer close(inv.release)
	remote := pipePair(t, inv)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := NewClient(remote).Citation(ctx, Request{Keys: []string{"x"}}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Citation() error = %v, want deadline exceeded", err)
	}
}
