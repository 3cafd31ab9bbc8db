package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type ctxKey struct{}

// AccessVerifier is the slice of TokenService the middleware depends on.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, token string) (int64, error)
}

type failureResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor maps a failure to the HTTP status the API answers with.
func StatusFor(f Failure) int {
	switch f {
	case FailureNone:
		return http.StatusOK
	case FailureStoreUnavailable:
		return http.StatusServiceUnavailable
	case FailureInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

// WriteFailure renders a token error as a JSON body with a machine-readable code.
func WriteFailure(w http.ResponseWriter, err error) {
	f := FailureOf(err)
	msg := err.Error()
	if f == FailureInternal || f == FailureStoreUnavailable {
		msg = http.StatusText(StatusFor(f))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(f))
	json.NewEncoder(w).Encode(failureResponse{Error: msg, Code: f.String()})
}

func AuthMiddleware(tokens AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ParseBearer(r.Header.Get("Authorization"))
			if err != nil {
				WriteFailure(w, err)
				return
			}

			memberID, err := tokens.VerifyAccess(r.Context(), raw)
			if err != nil {
				slog.Warn("access token rejected", "path", r.URL.Path, "failure", FailureOf(err).String())
				WriteFailure(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), Principal{MemberID: memberID, AccessToken: raw})))
		})
	}
}

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	MemberID    int64
	AccessToken string
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}
