package draft

import "errors"

var (
	// ErrCorrupt is returned by Load when the stored draft cannot be
	// reassembled or parsed. The related keys have been purged.
	ErrCorrupt = errors.New("draft: stored draft is corrupt")

	// ErrDataURI is returned for malformed embedded image payloads.
	ErrDataURI = errors.New("draft: malformed data URI")
)
