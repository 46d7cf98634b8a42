// Package video defines the video record and the metadata store contract.
package video

import (
	"context"
	"time"
)

// Record is the metadata of one uploaded video. Path is a non-owning reference to
// the blob holding the bytes.
type Record struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"        validate:"notblank"`
	Description  string    `json:"description"`
	Filename     string    `json:"filename"     validate:"required"`
	OriginalName string    `json:"originalName"`
	Path         string    `json:"path"         validate:"required"`
	Size         int64     `json:"size"         validate:"gte=0"`
	Mimetype     string    `json:"mimetype"     validate:"required"`
	Duration     *float64  `json:"duration,omitempty"`
	Views        int64     `json:"views"        validate:"gte=0"`
	UploadDate   time.Time `json:"uploadDate"`
}

// Store persists video records.
//
// Implementations report a missing record with CodeVideoNotFound and an
// unreachable backend with CodeStoreUnavailable.
type Store interface {
	// Insert persists r, assigns its ID and returns the stored record.
	Insert(ctx context.Context, r *Record) (*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	// ListByUploadDateDesc returns all records, newest first.
	ListByUploadDateDesc(ctx context.Context) ([]Record, error)
	UpdateViews(ctx context.Context, id string, views int64) error
	DeleteByID(ctx context.Context, id string) error
	// DeleteMany removes the records with the given ids and returns how many were removed.
	// Unknown ids are skipped.
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// ConnState is the connection state of a metadata backend.
type ConnState string

const (
	StateDisconnected  ConnState = "disconnected"
	StateConnected     ConnState = "connected"
	StateConnecting    ConnState = "connecting"
	StateDisconnecting ConnState = "disconnecting"
)

// StatusProvider reports whether the metadata backend is currently reachable.
type StatusProvider interface {
	Status(ctx context.Context) ConnState
}

// Backend is a metadata store that can report its connection state and be closed.
type Backend interface {
	Store
	StatusProvider
	Close(ctx context.Context) error
}

// CheckAvailable fails fast with CodeStoreUnavailable unless sp reports a live connection.
func CheckAvailable(ctx context.Context, sp StatusProvider) error {
	state := sp.Status(ctx)
	if state != StateConnected {
		return Unavailable(nil, state)
	}
	return nil
}
