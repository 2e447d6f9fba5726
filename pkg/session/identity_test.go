package session_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFile(t *testing.T) {
	f := session.IdentityFile{Path: filepath.Join(t.TempDir(), session.IdentityFileName)}

	id, err := f.Read()
	require.NoError(t, err)
	assert.True(t, id.IsZero())

	minted := session.NewIdentity()
	require.NoError(t, f.Write(minted))

	id, err = f.Read()
	require.NoError(t, err)
	assert.Equal(t, minted, id)

	assert.Error(t, f.Write(session.Identity{}))
}

func TestIsSameSession(t *testing.T) {
	doc := session.NewDocument("r", session.Identity{ID: "a"}, time.Now())

	assert.True(t, session.IsSameSession(doc, session.Identity{ID: "a"}))
	assert.False(t, session.IsSameSession(doc, session.Identity{ID: "b"}))
	assert.False(t, session.IsSameSession(doc, session.Identity{}))
	assert.False(t, session.IsSameSession(nil, session.Identity{ID: "a"}))

	anon := domain.NewDocument("r", "", time.Now())
	assert.False(t, session.IsSameSession(anon, session.Identity{}))
}

func TestNewDocument(t *testing.T) {
	doc := session.NewDocument("add login feature", session.Identity{ID: "s"}, time.Now())
	assert.Equal(t, "global_discovery", doc.Request.GlobalPhase)
	assert.Empty(t, doc.Tasks)
	assert.Equal(t, "s", doc.Request.SessionID)
}
