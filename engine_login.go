package dashauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type errorEnvelope struct {
	Error *struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
		Details any    `json:"details"`
	} `json:"error"`
}

// Login posts the credentials to the auth endpoint once.
//
// A non-nil error is always a [*AuthError]: the server's own error fields for a
// non-2xx reply, a NetworkError (status 0) when no reply was received, or an
// UnknownError (status 500) for anything else, including an undecodable body.
// Login does not persist anything; see [Engine.HandleLogin].
func (e *Engine) Login(ctx context.Context, identifier, password string) (*LoginResponse, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := e.tracer.Start(ctx, "dashauth.login", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	resp, authErr := e.login(ctx, identifier, password)
	e.metrics.Observe(MetricLoginLatency, time.Since(start))

	if authErr != nil {
		span.SetAttributes(
			attribute.Int("dashauth.error.status", authErr.Status),
			attribute.String("dashauth.error.name", authErr.Name),
		)
		span.SetStatus(codes.Error, authErr.Message)

		switch authErr.Name {
		case ErrorNameNetwork:
			e.metricInc(MetricLoginNetworkError)
		case ErrorNameUnknown:
			e.metricInc(MetricLoginUnknownError)
		default:
			e.metricInc(MetricLoginFailure)
		}
		e.logger.Warn("login failed",
			slog.Int("status", authErr.Status),
			slog.String("name", authErr.Name),
		)
		return nil, authErr
	}

	span.SetAttributes(attribute.Int64("dashauth.user.id", resp.User.ID))
	span.SetStatus(codes.Ok, "")
	e.metricInc(MetricLoginSuccess)
	return resp, nil
}

func (e *Engine) login(ctx context.Context, identifier, password string) (*LoginResponse, *AuthError) {
	body, err := json.Marshal(LoginRequest{Identifier: identifier, Password: password})
	if err != nil {
		return nil, unknownError()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.API.LoginURL(), bytes.NewReader(body))
	if err != nil {
		e.logger.Error("building login request", slog.Any("err", err))
		return nil, unknownError()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := e.client.Do(req)
	if err != nil {
		e.logger.Debug("login transport failure", slog.Any("err", err))
		return nil, networkError()
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		e.logger.Debug("login body read failure", slog.Any("err", err))
		return nil, networkError()
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var envelope errorEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, unknownError()
		}
		authErr := &AuthError{
			Status:  res.StatusCode,
			Name:    ErrorNameAuthentication,
			Message: loginFailedMessage,
		}
		if envelope.Error != nil {
			if envelope.Error.Name != "" {
				authErr.Name = envelope.Error.Name
			}
			if envelope.Error.Message != "" {
				authErr.Message = envelope.Error.Message
			}
			authErr.Details = envelope.Error.Details
		}
		return nil, authErr
	}

	var resp LoginResponse
	if err := json.Unmarshal(data, &resp); err != nil || strings.TrimSpace(resp.JWT) == "" {
		return nil, unknownError()
	}
	return &resp, nil
}

// HandleLogin logs in and persists the token and profile. It never returns an
// error: every failure becomes a LoginResult with Success false and a
// user-facing message. No credentials are written unless the server accepted
// the login.
func (e *Engine) HandleLogin(ctx context.Context, email, password string) LoginResult {
	if e == nil {
		return LoginResult{Error: unknownErrorMessage}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := e.Login(ctx, email, password)
	if err != nil {
		msg := unknownErrorMessage
		var authErr *AuthError
		if errors.As(err, &authErr) {
			msg = authErr.Message
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, 0, err, nil)
		return LoginResult{Error: msg}
	}

	profile := resp.User.Profile()
	if err := e.store.SetToken(ctx, resp.JWT); err != nil {
		return e.credentialFailure(ctx, profile.ID, err)
	}
	if err := e.store.SetUser(ctx, profile); err != nil {
		// A token without a profile never authenticates; drop it.
		e.store.RemoveToken(ctx)
		return e.credentialFailure(ctx, profile.ID, err)
	}

	e.emitAudit(ctx, auditEventLoginSuccess, true, profile.ID, nil, nil)
	return LoginResult{Success: true, User: &profile}
}

func (e *Engine) credentialFailure(ctx context.Context, userID int64, err error) LoginResult {
	e.metricInc(MetricCredentialStoreFailure)
	e.emitAudit(ctx, auditEventCredentialFailure, false, userID, err, nil)

	msg := "Unable to store authentication token"
	var storageErr interface{ Message() string }
	if errors.As(err, &storageErr) {
		msg = storageErr.Message()
	}
	return LoginResult{Error: msg}
}
