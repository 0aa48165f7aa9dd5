package citeproc

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// Client issues typed requests through an Invoker.
type Client struct {
	inv Invoker
}

// NewClient creates a client.
func NewClient(inv Invoker) *Client {
	return &Client{inv: inv}
}

// Citation resolves one citation. found is false when the provider
// answered null.
func (c *Client) Citation(ctx context.Context, req Request) (markup string, found bool, err error) {
	env, err := CitationEnvelope(req)
	if err != nil {
		return "", false, err
	}
	res, err := c.inv.Invoke(ctx, env)
	if err != nil {
		return "", false, err
	}
	r := gjson.ParseBytes(res)
	switch r.Type {
	case gjson.Null:
		return "", false, nil
	case gjson.String:
		return r.Str, true, nil
	}
	return "", false, fmt.Errorf("%w: citation result is %s", ErrInvalidEnvelope, r.Type)
}

// Bibliography renders entries for keys, or the whole library.
func (c *Client) Bibliography(ctx context.Context, keys []string) (string, error) {
	env, err := BibliographyEnvelope(keys)
	if err != nil {
		return "", err
	}
	res, err := c.inv.Invoke(ctx, env)
	if err != nil {
		return "", err
	}
	return gjson.ParseBytes(res).String(), nil
}

// Reload asks the provider to re-read its bibliography files.
func (c *Client) Reload(ctx context.Context) error {
	_, err := c.inv.Invoke(ctx, Envelope{Command: CommandReload})
	return err
}
