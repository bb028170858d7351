package smsrouter

import "encoding/json"

// encodeToolResult marshals a tool's return value to the JSON string fed
// back to the model as a tool_result, matching sms_ai.py's
// json.dumps(tool_result).
func encodeToolResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
