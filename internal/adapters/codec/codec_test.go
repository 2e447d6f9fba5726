package codec_test

import (
	"testing"
	"time"

	"github.com/aretw0/waypoint/internal/adapters/codec"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	doc := domain.NewDocument("r", "s", time.Now())
	data, err := codec.Encode(doc, 3, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), doc.Revision, "encode must not touch the caller's document")
	assert.Equal(t, int64(3), codec.Revision(data))

	back, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, int64(3), back.Revision)
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := codec.Decode([]byte("{not json"))
	assert.ErrorIs(t, err, domain.ErrStateCorrupt)
	assert.Equal(t, int64(0), codec.Revision([]byte("{not json")))
}

func TestCheck(t *testing.T) {
	doc := &domain.Document{Revision: 2}
	assert.NoError(t, codec.Check(2, doc))
	assert.NoError(t, codec.Check(0, doc))
	assert.ErrorIs(t, codec.Check(3, doc), domain.ErrRevisionConflict)
}
