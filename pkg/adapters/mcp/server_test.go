package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/colloquy/internal/runtime"
	"github.com/aretw0/colloquy/pkg/adapters/memory"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/aretw0/colloquy/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*Server, *memory.TripleStore) {
	t.Helper()
	responder := ports.ResponderFunc(func(ctx context.Context, req ports.ResponseRequest) (string, error) {
		return "echo " + req.Sentence, nil
	})
	opener := session.OpenerFunc(func(ctx context.Context, id string, snap *domain.Snapshot) (session.Conversation, error) {
		return runtime.NewConversation(id, responder, runtime.WithSnapshot(snap))
	})
	triples := memory.NewTripleStore()
	return NewServer(session.NewManager(memory.NewStore(), opener), triples, WithVersion("test")), triples
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestServer_RegistersTools(t *testing.T) {
	s, _ := newServer(t)
	tools := s.MCPServer().ListTools()
	for _, name := range []string{"chat", "get_session", "query_triples"} {
		assert.Contains(t, tools, name)
	}

	noKB := NewServer(session.NewManager(memory.NewStore(), nil), nil)
	assert.NotContains(t, noKB.MCPServer().ListTools(), "query_triples")
}

func TestServer_ChatAndGetSession(t *testing.T) {
	s, _ := newServer(t)
	ctx := context.Background()

	resp, err := s.handleChat(ctx, callRequest("chat", nil), ChatArgs{SessionID: "s1", Input: "hello"})
	require.NoError(t, err)
	assert.Equal(t, ChatResponse{SessionID: "s1", Reply: "echo hello", Sentences: 1}, resp)

	_, err = s.handleChat(ctx, callRequest("chat", nil), ChatArgs{Input: "hello"})
	assert.ErrorIs(t, err, domain.ErrEmptySessionID)

	res, err := s.handleGetSession(ctx, callRequest("get_session", map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(text.Text), &snap))
	assert.Equal(t, []string{"hello"}, snap.Requests.Items())

	res, err = s.handleGetSession(ctx, callRequest("get_session", map[string]any{"session_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleGetSession(ctx, callRequest("get_session", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServer_QueryTriples(t *testing.T) {
	s, triples := newServer(t)
	ctx := context.Background()
	require.NoError(t, triples.AddTriple(ctx, domain.Triple{Subject: "cat", Predicate: "isa", Object: "animal"}))
	require.NoError(t, triples.AddTriple(ctx, domain.Triple{Subject: "cat", Predicate: "says", Object: "meow"}))

	resp, err := s.handleQuery(ctx, callRequest("query_triples", nil), QueryArgs{Subject: "cat", Predicate: "isa"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Triple{{Subject: "cat", Predicate: "isa", Object: "animal"}}, resp.Triples)

	resp, err = s.handleQuery(ctx, callRequest("query_triples", nil), QueryArgs{Subject: "dog"})
	require.NoError(t, err)
	assert.Empty(t, resp.Triples)
	assert.NotNil(t, resp.Triples)
}

func TestServer_StructuredHandlerBindsArguments(t *testing.T) {
	s, _ := newServer(t)
	tool := s.MCPServer().GetTool("chat")
	require.NotNil(t, tool)

	res, err := tool.Handler(context.Background(), callRequest("chat", map[string]any{
		"session_id": "s2",
		"input":      "hi",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	out, ok := res.StructuredContent.(ChatResponse)
	require.True(t, ok)
	assert.Equal(t, "echo hi", out.Reply)
}
