package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dantte-lp/goradius/internal/dict"
	"github.com/dantte-lp/goradius/internal/radius"
)

// -------------------------------------------------------------------------
// Admin HTTP Surface
// -------------------------------------------------------------------------

// DecodePath is the decode API endpoint.
const DecodePath = "/v1/decode"

// HealthPath is the liveness endpoint.
const HealthPath = "/healthz"

// ErrBadVectorLength indicates an authenticator that is not 16 bytes.
var ErrBadVectorLength = errors.New("authenticator must be 16 bytes")

// DecodeRequest is the decode API request body.
type DecodeRequest struct {
	// Packet is the hex-encoded datagram, including the 20-byte RADIUS
	// header. When Attrs is set instead, only the attribute region is
	// given and Authenticator supplies the vector.
	Packet string `json:"packet,omitempty"`

	// Attrs is the hex-encoded attribute region (no header).
	Attrs string `json:"attrs,omitempty"`

	// Authenticator is the hex-encoded 16-byte vector, used with Attrs
	// (an all-zero vector when empty) and ignored with Packet.
	Authenticator string `json:"authenticator,omitempty"`

	// Original is the hex-encoded original request authenticator for
	// reply-side decryption, optional.
	Original string `json:"original,omitempty"`

	// Secret is the shared secret. Empty leaves encrypted attributes
	// as raw bytes.
	Secret string `json:"secret,omitempty"`
}

// DecodedPair is one pair in the decode API response.
type DecodedPair struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Tag   uint8  `json:"tag,omitempty"`
	Value string `json:"value"`
}

// DecodeResponse is the decode API response body.
type DecodeResponse struct {
	Code  string        `json:"code,omitempty"`
	ID    *uint8        `json:"id,omitempty"`
	Pairs []DecodedPair `json:"pairs"`
}

// NewMux assembles the admin mux: health, the decode API, and any extra
// handlers (the metrics endpoint) supplied by the caller.
func NewMux(d *dict.Dictionary, logger *slog.Logger, extra map[string]http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.Handle(DecodePath, &decodeHandler{
		dict:   d,
		logger: logger.With(slog.String("component", "server.decode")),
	})

	for path, h := range extra {
		mux.Handle(path, h)
	}

	return mux
}

// decodeHandler serves POST /v1/decode.
type decodeHandler struct {
	dict   *dict.Dictionary
	logger *slog.Logger
}

// ServeHTTP implements http.Handler.
func (h *decodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("bad request: %v", err), http.StatusBadRequest)
		return
	}

	resp, err := h.decode(&req)
	if err != nil {
		http.Error(w, fmt.Sprintf("decode: %v", err), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("response write failed", slog.String("error", err.Error()))
	}
}

// decode runs the decoder over the request's bytes.
func (h *decodeHandler) decode(req *DecodeRequest) (*DecodeResponse, error) {
	dec := radius.Decoder{
		Dict:   h.dict,
		Secret: []byte(req.Secret),
	}

	if req.Original != "" {
		orig, err := parseVector(req.Original)
		if err != nil {
			return nil, fmt.Errorf("original: %w", err)
		}
		dec.Original = &orig
	}

	resp := &DecodeResponse{Pairs: []DecodedPair{}}

	var attrs []byte
	switch {
	case req.Packet != "":
		raw, err := hex.DecodeString(req.Packet)
		if err != nil {
			return nil, fmt.Errorf("packet: %w", err)
		}
		pkt, err := radius.ParsePacket(raw)
		if err != nil {
			return nil, err
		}
		dec.Vector = pkt.Authenticator
		attrs = pkt.Attrs
		resp.Code = pkt.Code.String()
		id := pkt.ID
		resp.ID = &id

	default:
		raw, err := hex.DecodeString(req.Attrs)
		if err != nil {
			return nil, fmt.Errorf("attrs: %w", err)
		}
		if req.Authenticator != "" {
			vector, err := parseVector(req.Authenticator)
			if err != nil {
				return nil, fmt.Errorf("authenticator: %w", err)
			}
			dec.Vector = vector
		}
		attrs = raw
	}

	pairs, err := dec.DecodePairs(attrs)
	if err != nil {
		return nil, err
	}

	for p := pairs; p != nil; p = p.Next {
		resp.Pairs = append(resp.Pairs, DecodedPair{
			Name:  p.Attr.Name,
			Type:  p.Value.Kind.String(),
			Tag:   p.Tag,
			Value: p.Value.String(),
		})
	}

	return resp, nil
}

// parseVector decodes a hex-encoded 16-byte authenticator.
func parseVector(s string) ([radius.VectorLen]byte, error) {
	var v [radius.VectorLen]byte

	raw, err := hex.DecodeString(s)
	if err != nil {
		return v, err
	}
	if len(raw) != radius.VectorLen {
		return v, fmt.Errorf("%d bytes: %w", len(raw), ErrBadVectorLength)
	}
	copy(v[:], raw)

	return v, nil
}
