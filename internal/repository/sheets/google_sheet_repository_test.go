package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

type recordedCall struct {
	method string
	path   string
	body   string
}

type sheetsStub struct {
	mu     sync.Mutex
	calls  []recordedCall
	titles []string
}

func (s *sheetsStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.calls = append(s.calls, recordedCall{method: r.Method, path: r.URL.Path, body: string(body)})
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet {
		var sheets []map[string]any
		for _, title := range s.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
		return
	}
	_, _ = w.Write([]byte(`{}`))
}

func newStubRepository(t *testing.T, stub *sheetsStub) *GoogleSheetRepository {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	svc, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return &GoogleSheetRepository{service: svc, spreadsheetID: "sheet-1", logger: zap.NewNop()}
}

func TestEnsureSheetAddsMissingTab(t *testing.T) {
	stub := &sheetsStub{titles: []string{"27-05-2025"}}
	repo := newStubRepository(t, stub)

	require.NoError(t, repo.EnsureSheet(context.Background(), "28-05-2025"))

	require.Len(t, stub.calls, 2)
	assert.Equal(t, http.MethodGet, stub.calls[0].method)
	assert.Equal(t, http.MethodPost, stub.calls[1].method)
	assert.True(t, strings.HasSuffix(stub.calls[1].path, "sheet-1:batchUpdate"), stub.calls[1].path)
	assert.Contains(t, stub.calls[1].body, `"title":"28-05-2025"`)
}

func TestEnsureSheetKeepsExistingTab(t *testing.T) {
	stub := &sheetsStub{titles: []string{"28-05-2025"}}
	repo := newStubRepository(t, stub)

	require.NoError(t, repo.EnsureSheet(context.Background(), "28-05-2025"))
	assert.Len(t, stub.calls, 1)
}

func TestWriteRangeSendsRawValues(t *testing.T) {
	stub := &sheetsStub{}
	repo := newStubRepository(t, stub)

	err := repo.WriteRange(context.Background(), "'28-05-2025'!A1", [][]interface{}{{"TOTAL", 27}})
	require.NoError(t, err)

	require.Len(t, stub.calls, 1)
	assert.Equal(t, http.MethodPut, stub.calls[0].method)
	assert.Contains(t, stub.calls[0].body, `"TOTAL"`)

	assert.Error(t, repo.WriteRange(context.Background(), "", nil))
	assert.Error(t, repo.ClearRange(context.Background(), ""))
	assert.Len(t, stub.calls, 1, "empty ranges never reach the API")
}
