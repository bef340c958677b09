package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/Daskott/haven/colors"
	"github.com/gorilla/mux"
)

const MAX_BODY_BYTES = 1 << 20

type RequestContextKey string

const uidContextKey = RequestContextKey("uid")

// TokenVerifier checks firebase ID tokens, *auth.Client satisfies it
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type ResponseWriterWithStatus struct {
	http.ResponseWriter
	Status int
}

func (r *ResponseWriterWithStatus) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		responseWriter := &ResponseWriterWithStatus{
			ResponseWriter: w,
			Status:         http.StatusOK,
		}

		defer func() {
			logg.Infof("%v %v %v %v",
				r.Method,
				r.RequestURI,
				colors.HTTPStatus(responseWriter.Status),
				colors.Yellow(fmt.Sprintf("[%v]", time.Since(start))))
		}()

		next.ServeHTTP(responseWriter, r)
	})
}

func initialContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, MAX_BODY_BYTES)
		}

		next.ServeHTTP(w, r)
	})
}

// ownerRouteMiddleware only lets users through with a valid ID token,
// for their own '{id}' routes.
func ownerRouteMiddleware(verifier TokenVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idToken, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found || strings.TrimSpace(idToken) == "" {
				writeError(w, "no token provided", nil, http.StatusUnauthorized)
				return
			}

			token, err := verifier.VerifyIDToken(r.Context(), idToken)
			if err != nil {
				writeError(w, "invalid token provided", err, http.StatusUnauthorized)
				return
			}

			if id := mux.Vars(r)["id"]; id != "" && id != token.UID {
				writeError(w, "action is forbidden", nil, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), uidContextKey, token.UID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestUID returns the verified uid of the caller, if ID tokens are checked
func requestUID(r *http.Request) (string, bool) {
	uid, ok := r.Context().Value(uidContextKey).(string)
	return uid, ok
}
