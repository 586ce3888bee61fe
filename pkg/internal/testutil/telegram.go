package testutil

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	telegram "github.com/go-telegram/bot"
)

// ForbiddenResponse is what the Bot API answers for a chat that blocked the bot.
const ForbiddenResponse = `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`

// RecordedRequest is one Bot API call with its multipart fields decoded.
type RecordedRequest struct {
	Path   string
	Method string
	Fields map[string]string
}

// MockClient records Bot API calls and answers them with canned responses.
// Responses can be overridden per chat id. Safe for concurrent use.
type MockClient struct {
	mu          sync.Mutex
	requests    []RecordedRequest
	response    string
	perChat     map[string]string
	failPerChat map[string]error
}

func NewMockClient() *MockClient {
	return &MockClient{
		response:    `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`,
		perChat:     map[string]string{},
		failPerChat: map[string]error{},
	}
}

// RespondFor makes calls addressed to chatID answer with body.
func (m *MockClient) RespondFor(chatID int64, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perChat[fmt.Sprint(chatID)] = body
}

// FailFor makes calls addressed to chatID fail at the transport level.
func (m *MockClient) FailFor(chatID int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPerChat[fmt.Sprint(chatID)] = err
}

func (m *MockClient) Do(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if err := req.Body.Close(); err != nil {
		return nil, fmt.Errorf("failed to close request body: %w", err)
	}
	fields, err := decodeFields(req.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, RecordedRequest{
		Path:   req.URL.Path,
		Method: req.Method,
		Fields: fields,
	})

	if err, ok := m.failPerChat[fields["chat_id"]]; ok {
		return nil, err
	}
	response := m.response
	if override, ok := m.perChat[fields["chat_id"]]; ok {
		response = override
	}
	status := http.StatusOK
	if strings.Contains(response, `"ok":false`) {
		status = http.StatusForbidden
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(response)),
		Header:     make(http.Header),
	}, nil
}

func decodeFields(contentType string, body []byte) (map[string]string, error) {
	fields := map[string]string{}
	if contentType == "" {
		return fields, nil
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse media type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return fields, nil
	}
	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return fields, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read multipart part: %w", err)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("failed to read multipart field: %w", err)
		}
		fields[part.FormName()] = string(data)
	}
}

// Requests returns a copy of the recorded calls.
func (m *MockClient) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// RequestsTo returns the recorded calls whose path ends with method, e.g. "sendMessage".
func (m *MockClient) RequestsTo(method string) []RecordedRequest {
	var out []RecordedRequest
	for _, req := range m.Requests() {
		if strings.HasSuffix(req.Path, "/"+method) {
			out = append(out, req)
		}
	}
	return out
}

// LastMessageText returns the text field of the most recent call.
func (m *MockClient) LastMessageText(t *testing.T) string {
	t.Helper()
	return m.LastField(t, "text")
}

func (m *MockClient) LastField(t *testing.T, name string) string {
	t.Helper()
	requests := m.Requests()
	if len(requests) == 0 {
		t.Fatalf("expected at least one recorded request")
	}
	value, ok := requests[len(requests)-1].Fields[name]
	if !ok {
		t.Fatalf("field %q not found in request", name)
	}
	return value
}

// NewTestBot builds a bot that talks to client instead of the Bot API.
func NewTestBot(t *testing.T, client *MockClient) *telegram.Bot {
	t.Helper()
	b, err := telegram.New("test-token",
		telegram.WithSkipGetMe(),
		telegram.WithHTTPClient(time.Second, client),
	)
	if err != nil {
		t.Fatalf("failed to create test bot: %v", err)
	}
	return b
}
