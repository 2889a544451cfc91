package agent

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Request is the wire shape of one exchange with the agent.
type Request struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Response is the agent's reply. Success is a pointer because older agent
// builds omit the field entirely on plain version replies.
type Response struct {
	ID      string          `json:"id,omitempty"`
	Success *bool           `json:"success,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Rejected reports whether the agent explicitly refused the request.
func (r Response) Rejected() bool {
	return r.Success != nil && !*r.Success
}

// AgentError carries the agent's own rejection message so the classifier
// can match it against the application vocabulary.
type AgentError struct {
	Message string
}

func (e *AgentError) Error() string {
	if e.Message == "" {
		return "agent rejected request"
	}
	return e.Message
}

// NewVersionRequest builds the liveness request.
func NewVersionRequest() Request {
	return Request{ID: uuid.NewString(), Name: "version"}
}

// NewCertificateRequest asks the agent for the signing certificate chosen
// by the user.
func NewCertificateRequest(lang string) Request {
	args := map[string]any{}
	if lang != "" {
		args["lang"] = lang
	}
	return Request{ID: uuid.NewString(), Name: "getKeyInfo", Arguments: args}
}

// NewSignRequest asks the agent to sign a digest with the given key.
func NewSignRequest(keyID string, digest []byte, hashType string) Request {
	if hashType == "" {
		hashType = "SHA-256"
	}
	return Request{
		ID:   uuid.NewString(),
		Name: "sign",
		Arguments: map[string]any{
			"keyId":    keyID,
			"hash":     base64.StdEncoding.EncodeToString(digest),
			"hashType": hashType,
		},
	}
}

// DigestSHA256 hashes a payload for signing. The bridge never validates
// signatures; it only prepares the digest the agent expects.
func DigestSHA256(payload []byte) []byte {
	sum := sha256.Sum256(payload)
	return sum[:]
}

func (r Request) encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal request %q: %w", r.Name, err)
	}
	return data, nil
}
