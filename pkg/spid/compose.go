package spid

import "github.com/ribasushi/go-fil-spid/pkg/constants"

// Compose returns the exact bytes handed to the signer: pad, beacon entry, payload.
//
// Pad and beacon are both multiples of 3 bytes, so base64 of the message is the
// plain concatenation of their encodings and the payload encoding.
func Compose(beacon, payload []byte) []byte {
	msg := make([]byte, 0, len(constants.SignaturePad)+len(beacon)+len(payload))
	msg = append(msg, constants.SignaturePad...)
	msg = append(msg, beacon...)
	return append(msg, payload...)
}
