package middleware

import (
	"net/http"

	"github.com/fieldtoyou/fieldtoyou-backend/api/responses"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

// RequireUserType gates a route to one account type. It assumes Auth ran
// earlier in the chain.
func RequireUserType(userType enums.UserType, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserTypeFromContext(r.Context()) != userType {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account type not allowed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
