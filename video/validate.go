package video

import "github.com/rise-and-shine/vidstream/val"

// Validate checks the attributes a record must carry before it is inserted.
// Failures carry CodeValidationFailed.
func (r *Record) Validate() error {
	return val.ValidateSchema(r)
}
