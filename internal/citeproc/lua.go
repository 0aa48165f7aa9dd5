package citeproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// ErrNoFormatFunction indicates a script that does not define
// format_citation.
var ErrNoFormatFunction = errors.New("script does not define format_citation")

// DefaultScriptTimeout bounds one call into a formatter script.
const DefaultScriptTimeout = time.Second

// LuaFormatter renders citations with a user script. The script defines
// format_citation(items, composite) and optionally
// format_bibliography(entries); either may return nil to defer to the
// fallback formatter.
//
// Each item is a table with id, prefix, locator, label, suffix,
// suppress_author, author, authors, year and title fields.
type LuaFormatter struct {
	mu       sync.Mutex
	L        *lua.LState
	fallback Formatter
	timeout  time.Duration
}

// LoadLuaFormatter reads a formatter script from path.
func LoadLuaFormatter(path string, fallback Formatter) (*LuaFormatter, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read formatter script: %w", err)
	}
	return NewLuaFormatter(string(src), fallback)
}

// NewLuaFormatter compiles a formatter script in a sandboxed state with
// only the base, table, string and math libraries.
func NewLuaFormatter(src string, fallback Formatter) (*LuaFormatter, error) {
	if fallback == nil {
		fallback = AuthorDate{}
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("load formatter script: %w", err)
	}
	if L.GetGlobal("format_citation").Type() != lua.LTFunction {
		L.Close()
		return nil, ErrNoFormatFunction
	}
	return &LuaFormatter{L: L, fallback: fallback, timeout: DefaultScriptTimeout}, nil
}

// Close releases the Lua state.
func (f *LuaFormatter) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.L.Close()
}

// FormatCitation implements Formatter.
func (f *LuaFormatter) FormatCitation(cites []Cited, composite bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.L.NewTable()
	for _, c := range cites {
		items.Append(f.citedTable(c))
	}
	out, ok, err := f.call("format_citation", items, lua.LBool(composite))
	if err != nil {
		return "", err
	}
	if !ok {
		return f.fallback.FormatCitation(cites, composite)
	}
	return out, nil
}

// FormatBibliography implements Formatter.
func (f *LuaFormatter) FormatBibliography(entries []Entry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.L.GetGlobal("format_bibliography").Type() != lua.LTFunction {
		return f.fallback.FormatBibliography(entries)
	}
	tbl := f.L.NewTable()
	for _, e := range entries {
		tbl.Append(f.entryTable(e))
	}
	out, ok, err := f.call("format_bibliography", tbl)
	if err != nil {
		return "", err
	}
	if !ok {
		return f.fallback.FormatBibliography(entries)
	}
	return out, nil
}

// call invokes a global function and returns its string result. ok is
// false when the function returned nil.
func (f *LuaFormatter) call(name string, args ...lua.LValue) (out string, ok bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	f.L.SetContext(ctx)
	defer f.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic in %s: %v", name, r)
		}
	}()

	err = f.L.CallByParam(lua.P{Fn: f.L.GetGlobal(name), NRet: 1, Protect: true}, args...)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", name, err)
	}
	ret := f.L.Get(-1)
	f.L.Pop(1)

	switch v := ret.(type) {
	case lua.LString:
		return string(v), true, nil
	case *lua.LNilType:
		return "", false, nil
	}
	return "", false, fmt.Errorf("%s returned %s, want string or nil", name, ret.Type())
}

func (f *LuaFormatter) citedTable(c Cited) *lua.LTable {
	t := f.entryTable(c.Entry)
	t.RawSetString("id", lua.LString(c.Item.ID))
	t.RawSetString("prefix", lua.LString(c.Item.Prefix))
	t.RawSetString("locator", lua.LString(c.Item.Locator))
	t.RawSetString("label", lua.LString(c.Item.Label))
	t.RawSetString("suffix", lua.LString(c.Item.Suffix))
	t.RawSetString("suppress_author", lua.LBool(c.Item.SuppressAuthor))
	return t
}

func (f *LuaFormatter) entryTable(e Entry) *lua.LTable {
	t := f.L.NewTable()
	t.RawSetString("id", lua.LString(e.ID))
	t.RawSetString("type", lua.LString(e.Type))
	t.RawSetString("title", lua.LString(e.Title))
	t.RawSetString("year", lua.LString(e.Year))
	t.RawSetString("container_title", lua.LString(e.ContainerTitle))
	t.RawSetString("publisher", lua.LString(e.Publisher))

	authors := f.L.NewTable()
	for _, n := range e.Authors {
		authors.Append(lua.LString(n.Short()))
	}
	t.RawSetString("authors", authors)
	if len(e.Authors) > 0 {
		t.RawSetString("author", lua.LString(e.Authors[0].Short()))
	} else {
		t.RawSetString("author", lua.LString(""))
	}
	return t
}
