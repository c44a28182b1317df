package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/chorus/internal/auth"
	"github.com/desertthunder/chorus/internal/models"
)

// CallbackResult contains the result of a PKCE authorization flow.
type CallbackResult struct {
	Record *models.TokenRecord
	err    error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler handles OAuth2 redirect callbacks for the PKCE flow.
// Implements the Handler interface for registration with a Router.
//
// The state parameter carried back by the provider keys the held code
// verifier; the [auth.TokenManager] consumes the attempt during the
// exchange, so a callback can only complete once per authorization.
type CallbackHandler struct {
	manager     *auth.TokenManager
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a callback handler backed by the given
// token manager.
func NewCallbackHandler(manager *auth.TokenManager) *CallbackHandler {
	return &CallbackHandler{
		manager:    manager,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Reads the state and authorization code, completes the code-for-token
// exchange through the token manager, and sends the result through the
// result channel.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state == "" {
		err := fmt.Errorf("missing state parameter")
		h.Send(CallbackResult{err: err})
		http.Error(w, "Missing state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.Send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	record, err := h.manager.CompleteAuthorization(r.Context(), state, code)
	if err != nil {
		h.Send(CallbackResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(CallbackResult{Record: record})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}
