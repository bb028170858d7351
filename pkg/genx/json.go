package genx

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"
)

// unmarshalJSON decodes a tool-call's JSON arguments, which a streaming
// backend can hand back truncated or with a trailing comma. A plain
// json.Unmarshal syntax error triggers one jsonrepair pass before retrying;
// any other error (schema mismatch, type error) is returned as-is.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil {
			return repairErr
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

// hexString returns a random 16-character hex ID, used for the short opaque
// IDs that pair a recorded tool call with its result.
func hexString() string {
	var b [8]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
