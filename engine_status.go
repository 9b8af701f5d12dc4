package dashauth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MrEthical07/dashauth/jwt"
)

// Status inspects the stored credentials.
//
// A stored token that is expired, undecodable or missing exp is cleared
// together with the profile before Status returns, so expiry detection is
// self-healing. Status never fails; storage read faults read as absent.
func (e *Engine) Status(ctx context.Context) Status {
	if e == nil {
		return Status{Reason: ReasonNoToken}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	e.metricInc(MetricStatusCheck)

	token, ok := e.store.Token(ctx)
	if !ok || strings.TrimSpace(token) == "" {
		return Status{Reason: ReasonNoToken}
	}

	validity := e.codec.Check(token)
	switch validity.Status {
	case jwt.StatusValid:
	case jwt.StatusExpired:
		e.expire(ctx, ReasonExpired, validity)
		return Status{Reason: ReasonExpired}
	default:
		e.expire(ctx, ReasonMalformed, validity)
		return Status{Reason: ReasonMalformed}
	}

	profile := e.store.User(ctx)
	if profile == nil {
		return Status{Reason: ReasonNoProfile}
	}
	return Status{Authenticated: true, Reason: ReasonValid, Profile: profile}
}

func (e *Engine) expire(ctx context.Context, reason StatusReason, validity jwt.Validity) {
	var userID int64
	if p := e.store.User(ctx); p != nil {
		userID = p.ID
	}
	e.store.Clear(ctx)

	event, metric, err := auditEventSessionExpired, MetricSessionExpired, errTokenExpired
	if reason == ReasonMalformed {
		event, metric, err = auditEventSessionMalformed, MetricSessionMalformed, errTokenInvalid
	}
	e.metricInc(metric)
	e.logger.Info("stored session cleared",
		slog.String("reason", reason.String()),
		slog.String("token_status", validity.Status.String()),
	)
	e.emitAudit(ctx, event, false, userID, err, nil)
}

// IsAuthenticated reports Status(ctx).Authenticated, with the same
// self-healing side effect.
func (e *Engine) IsAuthenticated(ctx context.Context) bool {
	return e.Status(ctx).Authenticated
}

// CurrentUser returns the stored profile only while authenticated.
func (e *Engine) CurrentUser(ctx context.Context) *Profile {
	return e.Status(ctx).Profile
}

// AuthHeader returns an Authorization bearer header for the stored token, or
// an empty header when none is stored. The token is not validated.
func (e *Engine) AuthHeader(ctx context.Context) http.Header {
	h := http.Header{}
	if e == nil {
		return h
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if token, ok := e.store.Token(ctx); ok && token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// Logout clears the stored token and profile. It never fails.
func (e *Engine) Logout(ctx context.Context) {
	if e == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var userID int64
	if p := e.store.User(ctx); p != nil {
		userID = p.ID
	}
	e.store.Clear(ctx)
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, userID, nil, nil)
}
