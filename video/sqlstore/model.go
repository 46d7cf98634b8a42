package sqlstore

import (
	"time"

	"github.com/rise-and-shine/vidstream/video"
	"github.com/uptrace/bun"
)

type row struct {
	bun.BaseModel `bun:"table:videos,alias:v"`

	ID           string    `bun:"id,pk"`
	Title        string    `bun:"title,notnull"`
	Description  string    `bun:"description,notnull"`
	Filename     string    `bun:"filename,notnull,unique"`
	OriginalName string    `bun:"original_name,notnull"`
	Path         string    `bun:"path,notnull"`
	Size         int64     `bun:"size,notnull"`
	Mimetype     string    `bun:"mimetype,notnull"`
	Duration     *float64  `bun:"duration"`
	Views        int64     `bun:"views,notnull"`
	UploadDate   time.Time `bun:"upload_date,notnull"`
}

func fromRecord(r *video.Record) *row {
	return &row{
		ID:           r.ID,
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

func (m *row) toRecord() video.Record {
	return video.Record{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Filename:     m.Filename,
		OriginalName: m.OriginalName,
		Path:         m.Path,
		Size:         m.Size,
		Mimetype:     m.Mimetype,
		Duration:     m.Duration,
		Views:        m.Views,
		UploadDate:   m.UploadDate,
	}
}
