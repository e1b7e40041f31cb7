// Package httputil provides JSON response helpers and HTTP middleware.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, profile)
//	httputil.WriteErrorMessage(w, http.StatusBadRequest, "state has been changed")
//	httputil.WriteUnauthorized(w, "login required")
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//	)(router)
package httputil
