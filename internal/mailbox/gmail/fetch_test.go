package gmail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func TestToRawMessage(t *testing.T) {
	msg := &gmailv1.Message{
		Id:           "18c0ffee",
		InternalDate: 1714642200123,
		Snippet:      "We would like to schedule an interview",
		Payload: &gmailv1.MessagePart{Headers: []*gmailv1.MessagePartHeader{
			{Name: "SUBJECT", Value: "Next steps"},
			{Name: "From", Value: `"Globex Talent" <talent@globex.com>`},
			{Name: "Subject", Value: "ignored second subject"},
		}},
	}
	raw := toRawMessage(msg)
	assert.Equal(t, "18c0ffee", raw.ID)
	assert.Equal(t, "Next steps", raw.Subject)
	assert.Equal(t, `"Globex Talent" <talent@globex.com>`, raw.Sender)
	assert.Equal(t, time.Date(2024, 5, 2, 9, 30, 0, 123e6, time.UTC), raw.ReceivedAt)
	assert.Equal(t, msg.Snippet, raw.Snippet)
}

func TestToRawMessageDefaults(t *testing.T) {
	raw := toRawMessage(&gmailv1.Message{Id: "x", Payload: &gmailv1.MessagePart{
		Headers: []*gmailv1.MessagePartHeader{{Name: "Subject", Value: "   "}},
	}})
	assert.Equal(t, "No Subject", raw.Subject)
	assert.Equal(t, "Unknown Sender", raw.Sender)
	assert.True(t, raw.ReceivedAt.IsZero())

	raw = toRawMessage(&gmailv1.Message{Id: "y"})
	assert.Equal(t, "No Subject", raw.Subject)
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "after:2024/03/09", Query(time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)))
}

func TestCodeFromInput(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"4/0AbCd", "4/0AbCd", false},
		{"  4/0AbCd \n", "4/0AbCd", false},
		{"http://127.0.0.1:4567/?state=state-token&code=4%2F0XyZ&scope=x", "4/0XyZ", false},
		{"https://localhost/?state=s", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, err := codeFromInput(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

// fakeGmail serves just enough of the Gmail REST API for Fetcher.
type fakeGmail struct {
	mu      sync.Mutex
	pages   [][]string
	missing map[string]bool
	queries []string
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const prefix = "/gmail/v1/users/me/messages"
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == prefix:
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		f.mu.Unlock()
		page := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			page = int(tok[0] - '0')
		}
		resp := gmailv1.ListMessagesResponse{}
		for _, id := range f.pages[page] {
			resp.Messages = append(resp.Messages, &gmailv1.Message{Id: id})
		}
		if page+1 < len(f.pages) {
			resp.NextPageToken = string(rune('0' + page + 1))
		}
		_ = json.NewEncoder(w).Encode(resp)
	case strings.HasPrefix(r.URL.Path, prefix+"/"):
		id := strings.TrimPrefix(r.URL.Path, prefix+"/")
		if f.missing[id] {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found."}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(gmailv1.Message{
			Id:           id,
			InternalDate: 1714642200000,
			Snippet:      "snippet " + id,
			Payload: &gmailv1.MessagePart{Headers: []*gmailv1.MessagePartHeader{
				{Name: "Subject", Value: "Subject " + id},
				{Name: "From", Value: id + "@example.com"},
			}},
		})
	default:
		http.NotFound(w, r)
	}
}

func newTestFetcher(t *testing.T, fake *fakeGmail, opts FetchOptions) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gmailv1.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewFetcher(svc, opts, nil)
}

func TestFetchPagesKeepsOrderAndCountsSkips(t *testing.T) {
	fake := &fakeGmail{
		pages:   [][]string{{"a", "b"}, {"c", "d"}, {"e"}},
		missing: map[string]bool{"b": true},
	}
	f := newTestFetcher(t, fake, FetchOptions{MaxResults: 4, Workers: 3})

	after := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	batch, err := f.Fetch(context.Background(), after)
	require.NoError(t, err)

	var ids []string
	for _, m := range batch.Messages {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"a", "c", "d"}, ids, "list order kept, capped at four listed")
	assert.Equal(t, 1, batch.Skipped)
	assert.Equal(t, "Subject c", batch.Messages[1].Subject)
	assert.Equal(t, "c@example.com", batch.Messages[1].Sender)
	assert.Equal(t, "snippet c", batch.Messages[1].Snippet)

	require.NotEmpty(t, fake.queries)
	assert.Equal(t, "after:2024/04/02", fake.queries[0])
}

func TestFetchEmptyMailbox(t *testing.T) {
	f := newTestFetcher(t, &fakeGmail{pages: [][]string{nil}}, FetchOptions{})
	batch, err := f.Fetch(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, batch.Messages)
	assert.Zero(t, batch.Skipped)
}

func TestFetchListErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
	}))
	t.Cleanup(srv.Close)
	svc, err := gmailv1.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	_, err = NewFetcher(svc, FetchOptions{}, nil).Fetch(context.Background(), time.Now())
	assert.ErrorContains(t, err, "list messages")
}

func TestMessageURL(t *testing.T) {
	assert.Equal(t, "https://mail.google.com/mail/u/0/#all/18c0ffee", MessageURL("18c0ffee"))
}

func TestOpenBrowserRejectsNonHTTP(t *testing.T) {
	assert.Error(t, OpenBrowser("file:///etc/passwd"))
}
