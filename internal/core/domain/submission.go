package domain

import "time"

// Submission is an upload accepted for asynchronous routing. Its ID becomes
// the correlation id of every record produced for it.
type Submission struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	StorageKey string    `json:"storage_key"`
	CreatedAt  time.Time `json:"created_at"`
}
