// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"golang.org/x/oauth2"
)

// MemoryTokenStore is an in-memory test double for [api.TokenStore].
type MemoryTokenStore struct {
	token  *oauth2.Token
	Saves  int
	Clears int
}

func (m *MemoryTokenStore) Token() (*oauth2.Token, error) {
	return m.token, nil
}

func (m *MemoryTokenStore) Save(token *oauth2.Token) error {
	m.token = token
	m.Saves++
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	m.token = nil
	m.Clears++
	return nil
}

// StaticSettings is a fixed-value test double for [api.SettingsSource].
type StaticSettings struct {
	Address string
	Err     error
}

func (s *StaticSettings) ServerAddress() (string, error) {
	return s.Address, s.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// RecordingCloser tracks whether a body was closed.
type RecordingCloser struct {
	io.Reader
	Closed bool
}

func (r *RecordingCloser) Close() error {
	r.Closed = true
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
