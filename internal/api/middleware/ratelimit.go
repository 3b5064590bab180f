package middleware

import (
	"fmt"
	"net/http"

	"leetlab/internal/common"
	"leetlab/internal/platform/kv"
)

// SubmissionCooldown rejects a graded submission while the user's cooldown
// entry is live. Runs after Authenticator and before any judge dispatch, so a
// throttled request never reaches the orchestrator. The 429 is distinct from
// every grading failure so clients can back off instead of showing a verdict.
func SubmissionCooldown(gate *kv.CooldownGate) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthenticated.Error())
				return
			}

			admitted, err := gate.Admit(r.Context(), user.ID)
			if err != nil {
				common.RespondWithError(w, http.StatusServiceUnavailable, common.ErrServiceUnavailable.Error())
				return
			}
			if !admitted {
				common.RespondWithError(w, http.StatusTooManyRequests,
					fmt.Sprintf("please wait %.0f seconds before submitting again", gate.Window().Seconds()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
