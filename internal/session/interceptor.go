package session

import (
	"fmt"
	"log/slog"

	"github.com/nookcoder/clinic-console/internal/httpclient"
	"github.com/nookcoder/clinic-console/internal/logging"
	"github.com/nookcoder/clinic-console/internal/metrics"
)

// Clearer is the part of the store the interceptor needs.
type Clearer interface {
	ClearSession()
}

// InstallUnauthorizedInterceptor makes every 401 seen by client clear the
// session returned by accessor. The original error always reaches the caller;
// failures while clearing are logged only. It reports whether it installed
// the hook: a second call on the same client is a no-op.
func InstallUnauthorizedInterceptor(client *httpclient.Client, accessor func() Clearer, m *metrics.Metrics, logger *slog.Logger) bool {
	logger = logging.OrDefault(logger)

	installed := client.AttachInterceptor(httpclient.Interceptor{
		OnError: func(err error) error {
			if httpclient.IsUnauthorized(err) {
				m.Unauthorized()
				if clearErr := clearSafely(accessor); clearErr != nil {
					logger.Warn("failed to clear auth session after 401", "error", clearErr)
				}
			}
			return err
		},
	})
	if !installed {
		logger.Debug("unauthorized interceptor already installed")
	}
	return installed
}

func clearSafely(accessor func() Clearer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while clearing session: %v", r)
		}
	}()

	store := accessor()
	if store == nil {
		return fmt.Errorf("no session store available")
	}
	store.ClearSession()
	return nil
}
