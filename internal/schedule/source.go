package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Source is the interface that schedule providers must implement.
type Source interface {
	// Name returns a short description of the source for logging.
	Name() string

	// Fetch retrieves the full schedule document.
	Fetch(ctx context.Context) (*Data, error)
}

// Decode parses a schedule document and orders every district's records by
// date.
func Decode(r io.Reader) (*Data, error) {
	var data Data
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	if data.Schedule == nil {
		data.Schedule = make(map[string][]DayRecord)
	}
	data.sortDays()
	return &data, nil
}

// FileSource reads the schedule from a local JSON file.
type FileSource struct {
	path string
}

// NewFileSource creates a new file-backed schedule source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the file path.
func (s *FileSource) Name() string {
	return s.path
}

// Fetch reads and decodes the file.
func (s *FileSource) Fetch(ctx context.Context) (*Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open schedule file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// HTTPSource fetches the schedule document from a URL.
type HTTPSource struct {
	url      string
	username string
	password string
	client   *http.Client
}

// NewHTTPSource creates a new HTTP schedule source. Basic auth is used when
// both username and password are set.
func NewHTTPSource(url, username, password string) *HTTPSource {
	return &HTTPSource{
		url:      url,
		username: username,
		password: password,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the source URL.
func (s *HTTPSource) Name() string {
	return s.url
}

// Fetch downloads and decodes the schedule document.
func (s *HTTPSource) Fetch(ctx context.Context) (*Data, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if s.username != "" && s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch schedule: status %d", resp.StatusCode)
	}

	return Decode(resp.Body)
}
