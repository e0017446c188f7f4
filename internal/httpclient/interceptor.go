package httpclient

import "errors"

// ErrInterceptorAttached is logged when a second installation is attempted.
var ErrInterceptorAttached = errors.New("response interceptor already attached")

// Interceptor observes every response. OnResponse sees successful responses,
// OnError sees transport failures and *ResponseError values. Nil hooks pass
// the outcome through unchanged.
type Interceptor struct {
	OnResponse func(*Response) (*Response, error)
	OnError    func(error) error
}

// AttachInterceptor installs i if no interceptor has been attached yet and
// reports whether it did. Later calls are no-ops for the life of the client.
func (c *Client) AttachInterceptor(i Interceptor) bool {
	c.attachMu.Lock()
	defer c.attachMu.Unlock()

	if c.attached {
		c.logger.Debug("skipping interceptor installation", "reason", ErrInterceptorAttached)
		return false
	}
	c.interceptor.Store(&i)
	c.attached = true
	return true
}
