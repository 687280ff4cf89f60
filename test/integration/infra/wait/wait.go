package wait

import (
	"errors"
	"net/http"
	"time"
)

// HTTP200 polls url until it answers 200 or timeout passes.
func HTTP200(url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	return errors.New("timeout waiting for HTTP 200: " + url)
}
