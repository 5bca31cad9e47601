// ABOUTME: Transient device failure recovery
// ABOUTME: Re-prepares a device once after a failed write and retries
package output

import "fmt"

// retryOnce calls write. If it fails with an error recoverable accepts, the
// device is re-prepared and the write retried exactly once; a second
// failure is returned.
func retryOnce(name string, write func() error, recoverable func(error) bool, reprepare func() error) error {
	err := write()
	if err == nil || !recoverable(err) {
		return err
	}

	log.Warnf("%s output failed (%v), re-preparing device", name, err)
	if err := reprepare(); err != nil {
		return fmt.Errorf("%s: re-prepare failed: %w", name, err)
	}
	if err := write(); err != nil {
		return fmt.Errorf("%s write failed: %w", name, err)
	}
	return nil
}

func always(error) bool { return true }
