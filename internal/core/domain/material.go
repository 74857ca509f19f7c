package domain

import (
	"path/filepath"
	"strings"
	"time"
)

type MaterialStatus string

const (
	MaterialActive MaterialStatus = "active"
	MaterialPublic MaterialStatus = "public"
	MaterialTrash  MaterialStatus = "trash"
)

type Material struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      MaterialStatus `json:"status"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ExtractStatus is advisory metadata written by the worker pre-flight.
// Chat and generation always re-extract on demand.
type ExtractStatus string

const (
	ExtractPending ExtractStatus = "pending"
	ExtractOK      ExtractStatus = "ok"
	ExtractEmpty   ExtractStatus = "empty"
	ExtractFailed  ExtractStatus = "failed"
)

type Attachment struct {
	ID            string        `json:"id"`
	MaterialID    string        `json:"material_id"`
	Filename      string        `json:"filename"`
	StoragePath   string        `json:"storage_path"`
	ExtractStatus ExtractStatus `json:"extract_status"`
	ExtractError  string        `json:"extract_error,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Extension returns the lowercase filename extension without the dot.
func (a Attachment) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(a.Filename)), ".")
}

// SupportedFormats is the closed set of extractable attachment formats.
var SupportedFormats = map[string]bool{
	"pdf":  true,
	"docx": true,
	"pptx": true,
	"txt":  true,
}
