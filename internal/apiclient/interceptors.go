package apiclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/holygrail/holygrail-web/internal/ports"
)

const (
	HeaderRequestID   = "X-Request-Id"
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
	ContentTypeJSON   = "application/json"
)

type requestIDKey struct{}

// WithRequestID stores an inbound request id so outgoing calls reuse it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID tags each call with X-Request-Id, reusing the inbound id when one
// is present in ctx.
func RequestID() RequestInterceptor {
	return func(ctx context.Context, req *http.Request, _ PayloadKind) error {
		if req.Header.Get(HeaderRequestID) != "" {
			return nil
		}
		id := RequestIDFromContext(ctx)
		if id == "" {
			id = uuid.NewString()
		}
		req.Header.Set(HeaderRequestID, id)
		return nil
	}
}

// Bearer attaches the current access token. When there is no token any
// Authorization header is stripped and leftover session state is erased so a
// user record never outlives its token. Erase failures are logged and the
// request still goes out unauthenticated.
func Bearer(tokens ports.TokenSource, eraser ports.SessionEraser, logger *slog.Logger) RequestInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req *http.Request, _ PayloadKind) error {
		token := strings.TrimSpace(tokens.AccessToken(ctx))
		if token != "" {
			(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
			return nil
		}

		req.Header.Del("Authorization")
		if eraser == nil {
			return nil
		}
		if err := eraser.Erase(ctx); err != nil {
			logger.WarnContext(ctx, "failed to clear session remnants",
				slog.String("path", req.URL.Path),
				slog.Any("error", err))
		}
		return nil
	}
}

// ContentType declares JSON for every request except multipart and binary
// uploads, whose type is set by the encoder. Answers are always requested as JSON.
func ContentType() RequestInterceptor {
	return func(_ context.Context, req *http.Request, kind PayloadKind) error {
		if req.Header.Get(HeaderAccept) == "" {
			req.Header.Set(HeaderAccept, ContentTypeJSON)
		}
		switch kind {
		case PayloadMultipart, PayloadBinary:
			return nil
		default:
			req.Header.Set(HeaderContentType, ContentTypeJSON)
			return nil
		}
	}
}

// EraseOnUnauthorized erases the local session whenever the backend answers
// 401. The original error is always returned to the caller.
func EraseOnUnauthorized(eraser ports.SessionEraser, logger *slog.Logger) ResponseInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, _ *http.Response, callErr error) error {
		if !errors.Is(callErr, ErrUnauthorized) {
			return callErr
		}
		logger.InfoContext(ctx, "backend rejected credentials, clearing session")
		if err := eraser.Erase(ctx); err != nil {
			logger.ErrorContext(ctx, "failed to clear session after 401", slog.Any("error", err))
		}
		return callErr
	}
}

// Standard returns the request and response chains every session-aware
// client uses, in order.
func Standard(tokens ports.TokenSource, eraser ports.SessionEraser, logger *slog.Logger) ([]RequestInterceptor, []ResponseInterceptor) {
	return []RequestInterceptor{
			RequestID(),
			Bearer(tokens, eraser, logger),
			ContentType(),
		}, []ResponseInterceptor{
			EraseOnUnauthorized(eraser, logger),
		}
}
