// Package byterange models half-open byte intervals and converts them to and
// from the HTTP Range and Content-Range header forms.
package byterange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	rangePrefix        = "bytes="
	contentRangePrefix = "bytes "

	// UnknownTotal is reported when a Content-Range header carries "*" or no
	// parsable complete length.
	UnknownTotal int64 = -1
)

var ErrInvalidRange = errors.New("invalid byte range")

// ByteRange is the half-open interval [Lower, Upper).
type ByteRange struct {
	Lower int64 `json:"lower"`
	Upper int64 `json:"upper"`
}

// New returns the range [lower, upper) or ErrInvalidRange.
func New(lower, upper int64) (ByteRange, error) {
	if lower < 0 || upper < lower {
		return ByteRange{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, lower, upper)
	}

	return ByteRange{Lower: lower, Upper: upper}, nil
}

// FromOffset returns [offset, offset+length).
func FromOffset(offset, length int64) (ByteRange, error) {
	return New(offset, offset+length)
}

// Len returns the number of bytes in the range.
func (r ByteRange) Len() int64 {
	return r.Upper - r.Lower
}

// IsEmpty reports whether the range covers no bytes.
func (r ByteRange) IsEmpty() bool {
	return r.Upper <= r.Lower
}

// LastValidIndex is the last byte offset inside the range.
func (r ByteRange) LastValidIndex() int64 {
	return r.Upper - 1
}

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Lower, r.Upper)
}

// ContentRange is a parsed Content-Range response header.
type ContentRange struct {
	Range ByteRange
	Total int64
}

// HasTotal reports whether the server declared the complete length.
func (c ContentRange) HasTotal() bool {
	return c.Total != UnknownTotal
}

// ToRangeHeader renders r as a Range request header value. The wire form is
// inclusive, so the upper bound written is r.LastValidIndex().
func ToRangeHeader(r ByteRange) string {
	return fmt.Sprintf("%s%d-%d", rangePrefix, r.Lower, r.LastValidIndex())
}

// ToOpenEndedRangeHeader asks for everything from offset to the end of the resource.
func ToOpenEndedRangeHeader(offset int64) string {
	return fmt.Sprintf("%s%d-", rangePrefix, offset)
}

// ParseRangeHeader parses "bytes=low-high" into [low, high+1). Open-ended,
// suffix and multi-range forms are rejected.
func ParseRangeHeader(header string) (ByteRange, bool) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), rangePrefix)
	if !ok {
		return ByteRange{}, false
	}

	return parseInclusive(spec)
}

// ParseContentRangeHeader parses "bytes low-high/total". The total is
// UnknownTotal when it is "*" or malformed; a malformed range part fails the parse.
func ParseContentRangeHeader(header string) (ContentRange, bool) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), contentRangePrefix)
	if !ok {
		return ContentRange{}, false
	}

	rangePart, totalPart, found := strings.Cut(spec, "/")
	if !found {
		return ContentRange{}, false
	}

	r, ok := parseInclusive(rangePart)
	if !ok {
		return ContentRange{}, false
	}

	total, ok := parseTotal(totalPart)
	if !ok {
		total = UnknownTotal
	}

	return ContentRange{Range: r, Total: total}, true
}

// ParseCompleteLength extracts only the complete length of a Content-Range
// header, including the unsatisfied form "bytes */total".
func ParseCompleteLength(header string) (int64, bool) {
	_, totalPart, found := strings.Cut(header, "/")
	if !found {
		return 0, false
	}

	return parseTotal(totalPart)
}

func parseTotal(s string) (int64, bool) {
	total, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || total < 0 {
		return 0, false
	}

	return total, true
}

// parseInclusive turns "low-high" into [low, high+1). high may be low-1 to
// express an empty range.
func parseInclusive(spec string) (ByteRange, bool) {
	lowStr, highStr, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok || strings.HasPrefix(lowStr, "+") || strings.HasPrefix(highStr, "+") {
		return ByteRange{}, false
	}

	low, err := strconv.ParseInt(lowStr, 10, 64)
	if err != nil || low < 0 {
		return ByteRange{}, false
	}

	high, err := strconv.ParseInt(highStr, 10, 64)
	if err != nil || high+1 < low {
		return ByteRange{}, false
	}

	return ByteRange{Lower: low, Upper: high + 1}, true
}
