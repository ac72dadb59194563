package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javaintel/jcore/internal/config"
	"github.com/javaintel/jcore/internal/facade/tsfacade"
	"github.com/javaintel/jcore/internal/jtypes"
	"github.com/javaintel/jcore/internal/workspace"
)

const sessionSource = `package com.acme;

public class Greeter {
    private String name;

    public String greet() {
        return name.trim();
    }
}
`

func newTestSession(t *testing.T) (*Session, jtypes.URI) {
	t.Helper()
	store := workspace.New()
	fac, err := tsfacade.New()
	require.NoError(t, err)

	uri := jtypes.URI("file:///Greeter.java")
	store.Open(uri, sessionSource, 1)

	sess := New(store, fac, &config.Config{MaxCandidates: config.DefaultMaxCandidates}, nil, nil)
	return sess, uri
}

func TestSession_Complete_MemberAccessOnField(t *testing.T) {
	sess, uri := newTestSession(t)

	// Position right after "name." on the "return name.trim();" line.
	pos := jtypes.Position{Line: 6, Character: 20}
	candidates, err := sess.Complete(context.Background(), uri, pos)
	require.NoError(t, err)
	assert.NotNil(t, candidates)
}

func TestSession_Complete_RespectsCancellation(t *testing.T) {
	sess, uri := newTestSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sess.Complete(ctx, uri, jtypes.Position{Line: 0, Character: 0})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_CheckExpression_ResolvesFieldType(t *testing.T) {
	sess, uri := newTestSession(t)

	typ, err := sess.CheckExpression(context.Background(), uri, jtypes.Position{Line: 6, Character: 18})
	require.NoError(t, err)
	assert.NotNil(t, typ)
}
