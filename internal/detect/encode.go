package detect

import "encoding/base64"

// DataURI serializes JPEG bytes into an inline-displayable data URI.
func DataURI(jpeg []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
}
