package mongostore

import (
	"time"

	"github.com/rise-and-shine/vidstream/video"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type document struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Description  string             `bson:"description"`
	Filename     string             `bson:"filename"`
	OriginalName string             `bson:"originalName"`
	Path         string             `bson:"path"`
	Size         int64              `bson:"size"`
	Mimetype     string             `bson:"mimetype"`
	Duration     *float64           `bson:"duration,omitempty"`
	Views        int64              `bson:"views"`
	UploadDate   time.Time          `bson:"uploadDate"`
}

func toDocument(r *video.Record) document {
	return document{
		Title:        r.Title,
		Description:  r.Description,
		Filename:     r.Filename,
		OriginalName: r.OriginalName,
		Path:         r.Path,
		Size:         r.Size,
		Mimetype:     r.Mimetype,
		Duration:     r.Duration,
		Views:        r.Views,
		UploadDate:   r.UploadDate,
	}
}

func (d document) toRecord() video.Record {
	return video.Record{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Description:  d.Description,
		Filename:     d.Filename,
		OriginalName: d.OriginalName,
		Path:         d.Path,
		Size:         d.Size,
		Mimetype:     d.Mimetype,
		Duration:     d.Duration,
		Views:        d.Views,
		UploadDate:   d.UploadDate,
	}
}
