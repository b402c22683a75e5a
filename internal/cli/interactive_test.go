package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dthomason/wpsearch/pkg/logging"
	"github.com/dthomason/wpsearch/pkg/model"
	"github.com/dthomason/wpsearch/pkg/search"
	"github.com/dthomason/wpsearch/pkg/terminal"
	"github.com/dthomason/wpsearch/pkg/wordpress"
)

// interruptingGateway cancels the session context from inside the first
// completion, the way a SIGINT lands mid-query.
type interruptingGateway struct {
	cancel context.CancelFunc
	calls  int
}

func (g *interruptingGateway) CompleteWithTool(ctx context.Context, modelID, query string) (*model.ChatResponse, error) {
	g.calls++
	g.cancel()
	return nil, ctx.Err()
}

func (g *interruptingGateway) CompleteAnalysisOnly(context.Context, string, string, string) string {
	return ""
}

type unreachableContent struct{}

func (unreachableContent) FetchAll(ctx context.Context, maxResults int) ([]wordpress.ContentRecord, error) {
	return nil, ctx.Err()
}

func TestRunInteractiveExitsAfterInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw := &interruptingGateway{cancel: cancel}
	var buf bytes.Buffer
	a := &app{
		out:    terminal.NewWithOutput(&buf),
		logger: logging.Discard(),
		engine: search.NewEngine(gw, unreachableContent{}, []string{"primary"}, 5, logging.Discard()),
	}

	err := a.runInteractive(ctx, strings.NewReader("first query\nsecond query\n"))
	if err != nil {
		t.Fatalf("runInteractive: %v", err)
	}
	if gw.calls != 1 {
		t.Errorf("gateway calls = %d, want 1; the session must end once its context is canceled", gw.calls)
	}
}

func TestRunInteractiveExitCommand(t *testing.T) {
	gw := &interruptingGateway{cancel: func() {}}
	var buf bytes.Buffer
	a := &app{
		out:    terminal.NewWithOutput(&buf),
		logger: logging.Discard(),
		engine: search.NewEngine(gw, unreachableContent{}, []string{"primary"}, 5, logging.Discard()),
	}

	err := a.runInteractive(context.Background(), strings.NewReader("help\nexit\nnever reached\n"))
	if err != nil {
		t.Fatalf("runInteractive: %v", err)
	}
	if gw.calls != 0 {
		t.Errorf("gateway calls = %d, want 0; commands must not trigger searches", gw.calls)
	}
	if !strings.Contains(buf.String(), "id:<number>") {
		t.Errorf("help output missing, got %q", buf.String())
	}
}

func TestParseIDCommand(t *testing.T) {
	tests := []struct {
		in     string
		wantID int
		wantOK bool
	}{
		{"id:42", 42, true},
		{"ID:42", 42, true},
		{"id: 7", 7, true},
		{"id:0", 0, false},
		{"id:-3", 0, false},
		{"id:abc", 0, false},
		{"id:", 0, false},
		{"identify the author", 0, false},
		{"what is id:42 about", 0, false},
	}

	for _, tt := range tests {
		id, ok := parseIDCommand(tt.in)
		if ok != tt.wantOK || id != tt.wantID {
			t.Errorf("parseIDCommand(%q) = (%d, %v), want (%d, %v)", tt.in, id, ok, tt.wantID, tt.wantOK)
		}
	}
}
