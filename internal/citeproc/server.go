package citeproc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/dshills/citemark/internal/logging"
)

// Serve answers framed JSON-RPC requests read from r until r is exhausted
// or ctx is done. Requests to Channel carry an envelope as params and are
// handled concurrently; responses may be written out of order.
func Serve(ctx context.Context, r io.Reader, w io.Writer, inv Invoker, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithComponent("citeproc-server")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reader := bufio.NewReaderSize(r, 64*1024)
	var writeMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()

	reply := func(resp *response) {
		data, err := json.Marshal(resp)
		if err != nil {
			logger.Error("marshal response: %v", err)
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := writeMessage(w, data); err != nil {
			logger.Warn("write response: %v", err)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := readMessage(reader)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			logger.Warn("read request: %v", err)
			reply(&response{JSONRPC: "2.0", Error: &RPCError{Code: CodeParseError, Message: err.Error()}})
			continue
		}

		if !gjson.ValidBytes(msg) {
			reply(&response{JSONRPC: "2.0", Error: &RPCError{Code: CodeParseError, Message: "invalid JSON"}})
			continue
		}
		id := gjson.GetBytes(msg, "id").Int()
		method := gjson.GetBytes(msg, "method").String()
		params := []byte(gjson.GetBytes(msg, "params").Raw)

		if method != Channel {
			reply(&response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: CodeMethodNotFound, Message: "unknown method " + method}})
			continue
		}
		env, err := ParseEnvelope(params)
		if err != nil {
			reply(&response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: CodeInvalidParams, Message: err.Error()}})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := inv.Invoke(ctx, env)
			if err != nil {
				code := CodeInternalError
				if errors.Is(err, ErrUnknownCommand) {
					code = CodeMethodNotFound
				} else if errors.Is(err, ErrInvalidEnvelope) {
					code = CodeInvalidParams
				}
				reply(&response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: err.Error()}})
				return
			}
			reply(&response{JSONRPC: "2.0", ID: id, Result: result})
		}()
	}
}
