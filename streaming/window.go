package streaming

import (
	"strconv"
	"strings"

	"github.com/rise-and-shine/vidstream/filestore"
)

const bytesUnit = "bytes="

// Window is the byte range of a blob served by one response.
type Window struct {
	// Start and End are inclusive offsets. End is -1 for an empty blob.
	Start, End int64
	// Length is End-Start+1, the number of body bytes.
	Length int64
	// Size is the total size of the blob.
	Size int64
	// Partial is set when the window came from a Range header.
	Partial bool
}

// ContentRange formats the Content-Range header value for a partial response.
func (w Window) ContentRange() string {
	return "bytes " + strconv.FormatInt(w.Start, 10) + "-" + strconv.FormatInt(w.End, 10) +
		"/" + strconv.FormatInt(w.Size, 10)
}

// ParseRange computes the serve window of a blob of size bytes for a Range header.
//
// An empty header selects the whole blob. Otherwise only the single-range form
// "bytes=<start>-<end?>" is accepted; an omitted end means the last byte. Suffix
// ranges, multiple ranges and windows outside the blob fail with
// filestore.CodeInvalidRange.
func ParseRange(header string, size int64) (Window, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Window{Start: 0, End: size - 1, Length: size, Size: size}, nil
	}

	byteRange, ok := strings.CutPrefix(header, bytesUnit)
	if !ok || strings.Contains(byteRange, ",") {
		return Window{}, filestore.InvalidRange(-1, -1, size)
	}

	startStr, endStr, ok := strings.Cut(byteRange, "-")
	startStr, endStr = strings.TrimSpace(startStr), strings.TrimSpace(endStr)
	if !ok || startStr == "" {
		return Window{}, filestore.InvalidRange(-1, -1, size)
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return Window{}, filestore.InvalidRange(-1, -1, size)
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return Window{}, filestore.InvalidRange(start, -1, size)
		}
	}

	if start < 0 || start > end || end >= size {
		return Window{}, filestore.InvalidRange(start, end, size)
	}

	return Window{
		Start:   start,
		End:     end,
		Length:  end - start + 1,
		Size:    size,
		Partial: true,
	}, nil
}
