package resources

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcagent/internal/activity"
	"github.com/HendryAvila/mcagent/internal/behavior"
	"github.com/HendryAvila/mcagent/internal/evidence"
	"github.com/HendryAvila/mcagent/internal/miner"
	"github.com/HendryAvila/mcagent/internal/source"
)

type fakeLoader struct{ acts []activity.Activity }

func (f fakeLoader) Load(context.Context, source.Options) source.Batch {
	return source.Batch{Activities: f.acts, Origin: source.OriginCache}
}

func newTestHandler() *Handler {
	acts := []activity.Activity{
		{ID: "a", Title: "triage inbox", StartTime: "2025-12-01T09:00:00"},
		{ID: "b", Title: "triage inbox", StartTime: "2025-12-02T09:00:00"},
	}
	svc := behavior.NewService(behavior.Deps{
		Loader:  fakeLoader{acts: acts},
		Miner:   miner.New(miner.DefaultConfig(), nil),
		Builder: evidence.NewBuilder(evidence.Options{}, nil),
	}, nil)
	return NewHandler(svc)
}

func readReq(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func TestCandidatesResource(t *testing.T) {
	h := newTestHandler()
	if got := h.CandidatesResource().URI; got != CandidatesURI {
		t.Errorf("URI = %q", got)
	}

	contents, err := h.HandleCandidates(context.Background(), readReq(CandidatesURI))
	if err != nil {
		t.Fatalf("HandleCandidates: %v", err)
	}
	tc := contents[0].(mcp.TextResourceContents)
	if tc.MIMEType != "application/json" {
		t.Errorf("MIME = %q", tc.MIMEType)
	}

	var listing behavior.Listing
	if err := json.Unmarshal([]byte(tc.Text), &listing); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if len(listing.Candidates) != 1 || listing.Candidates[0].Freq != 2 || listing.Origin != source.OriginCache {
		t.Errorf("listing = %+v", listing)
	}
}

func TestCacheResource_Disabled(t *testing.T) {
	h := newTestHandler()
	contents, err := h.HandleCache(context.Background(), readReq(CacheURI))
	if err != nil {
		t.Fatalf("HandleCache: %v", err)
	}
	tc := contents[0].(mcp.TextResourceContents)
	if tc.MIMEType != "text/plain" || !strings.HasPrefix(tc.Text, "Error:") {
		t.Errorf("contents = %+v", tc)
	}
}
