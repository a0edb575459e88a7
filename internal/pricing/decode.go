package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodePage parses one page body. Field names match case-insensitively and
// unknown fields are ignored, which is how encoding/json behaves by default.
func decodePage(body []byte) (*pageEnvelope, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrDecode)
	}

	var env pageEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &env, nil
}
