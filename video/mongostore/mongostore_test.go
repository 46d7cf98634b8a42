package mongostore

import (
	"errors"
	"testing"
	"time"

	"github.com/rise-and-shine/vidstream/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestDocumentRoundTrip(t *testing.T) {
	duration := 12.5
	uploaded := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rec := &video.Record{
		Title:        "Intro",
		Description:  "first",
		Filename:     "video-1-a.mp4",
		OriginalName: "intro.mp4",
		Path:         "videos/video-1-a.mp4",
		Size:         1048576,
		Mimetype:     "video/mp4",
		Duration:     &duration,
		Views:        3,
		UploadDate:   uploaded,
	}

	doc := toDocument(rec)
	assert.True(t, doc.ID.IsZero(), "id is assigned by the server")

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "_id")
	assert.Contains(t, fields, "originalName")
	assert.Contains(t, fields, "uploadDate")
	assert.Contains(t, fields, "mimetype")

	doc.ID = primitive.NewObjectID()
	got := doc.toRecord()
	assert.Equal(t, doc.ID.Hex(), got.ID)
	got.ID = ""
	assert.Equal(t, *rec, got)
}

func TestToObjectIDs(t *testing.T) {
	valid := primitive.NewObjectID()
	got := toObjectIDs([]string{valid.Hex(), "not-an-id", ""})
	assert.Equal(t, []primitive.ObjectID{valid}, got)
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, isUnavailable(mongo.ErrClientDisconnected))
	assert.False(t, isUnavailable(mongo.ErrNoDocuments))
	assert.False(t, isUnavailable(errors.New("duplicate key")))
}
