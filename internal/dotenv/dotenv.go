// Package dotenv tokenizes the developer-local .env file into an ordered
// key/value mapping. The file is read once per run and every hook reads from
// the resulting File instead of re-parsing the text.
package dotenv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// ErrNotFound is returned by Load when the .env file does not exist.
var ErrNotFound = errors.New("env file not found")

// Entry is a single KEY=VALUE line. Value has inline comments and surrounding
// whitespace removed; quotes are preserved for the consumer to handle.
type Entry struct {
	Key   string
	Value string
	Line  int
}

// File is the parsed content of a .env file in source order.
type File struct {
	Path    string
	entries []Entry
}

// Load opens and parses the file at path. A missing file yields an error
// wrapping ErrNotFound.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open env file '%s': %w", path, err)
	}
	defer f.Close()

	file, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file '%s': %w", path, err)
	}
	file.Path = path
	return file, nil
}

// Parse reads KEY=VALUE lines from r. Blank lines, lines starting with '#'
// or ';' and lines without '=' are ignored.
func Parse(r io.Reader) (*File, error) {
	file := &File{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		entry, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		entry.Line = lineNo
		file.entries = append(file.entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return file, nil
}

func parseLine(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
		return Entry{}, false
	}
	key, rest, found := strings.Cut(trimmed, "=")
	if !found {
		return Entry{}, false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Entry{}, false
	}
	return Entry{Key: key, Value: strings.TrimSpace(stripComment(rest))}, true
}

// stripComment truncates s at the first '#' or ';' not preceded by a
// backslash. Escaped comment characters are unescaped.
func stripComment(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && (s[i+1] == '#' || s[i+1] == ';') {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		if c == '#' || c == ';' {
			break
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Entries returns all parsed entries in file order.
func (f *File) Entries() []Entry {
	if f == nil {
		return nil
	}
	return f.entries
}

// Len reports the number of parsed entries.
func (f *File) Len() int {
	if f == nil {
		return 0
	}
	return len(f.entries)
}

// Get returns the first entry for key.
func (f *File) Get(key string) (Entry, bool) {
	for _, e := range f.Entries() {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Map returns the unquoted value of the first entry for every key.
func (f *File) Map() map[string]string {
	m := make(map[string]string, f.Len())
	for _, e := range f.Entries() {
		if _, seen := m[e.Key]; !seen {
			m[e.Key] = e.Unquoted()
		}
	}
	return m
}

// Unquoted returns the value with every double quote removed.
func (e Entry) Unquoted() string {
	return strings.ReplaceAll(e.Value, `"`, "")
}

// Define renders the entry as a compiler define, escaping embedded quotes so
// string literals survive the compiler command line.
func (e Entry) Define() string {
	return "-D" + e.Key + "=" + strings.ReplaceAll(e.Value, `"`, `\"`)
}

// Undefine renders the flag that clears any prior definition of the key.
func (e Entry) Undefine() string {
	return "-D" + e.Key
}
