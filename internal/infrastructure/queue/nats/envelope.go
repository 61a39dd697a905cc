package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

type replyError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type replyEnvelope struct {
	Resolution *domain.Resolution `json:"resolution,omitempty"`
	Error      *replyError        `json:"error,omitempty"`
}

// remoteError carries a worker-side failure back into the caller's error kinds.
type remoteError struct {
	kind    error
	message string
}

func (e *remoteError) Error() string { return e.message }
func (e *remoteError) Unwrap() error { return e.kind }

func handleRequest(ctx context.Context, data []byte, handler ResolveHandler) []byte {
	var req domain.ResolveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return encodeReply(nil, fmt.Errorf("%w: malformed resolve request", domain.ErrInvalidInput))
	}
	resolution, err := handler(ctx, req)
	return encodeReply(resolution, err)
}

func encodeReply(resolution *domain.Resolution, err error) []byte {
	envelope := replyEnvelope{Resolution: resolution}
	if err != nil {
		envelope = replyEnvelope{Error: &replyError{
			Kind:    domain.KindName(domain.KindOf(err)),
			Message: domain.PublicMessage(err),
		}}
	}
	data, marshalErr := json.Marshal(envelope)
	if marshalErr != nil {
		slog.Error("nats_reply_encode_failed", "error", marshalErr)
		data, _ = json.Marshal(replyEnvelope{Error: &replyError{
			Kind:    domain.KindName(domain.ErrDataStore),
			Message: domain.ErrDataStore.Error(),
		}})
	}
	return data
}

func decodeReply(data []byte) (*domain.Resolution, error) {
	var envelope replyEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, domain.WrapError(domain.ErrDataStore, "decode nats reply", err)
	}
	if envelope.Error != nil {
		return nil, &remoteError{kind: domain.KindByName(envelope.Error.Kind), message: envelope.Error.Message}
	}
	if envelope.Resolution == nil {
		return nil, domain.WrapError(domain.ErrDataStore, "decode nats reply", fmt.Errorf("empty reply"))
	}
	return envelope.Resolution, nil
}
