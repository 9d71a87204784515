package catalog

import "fmt"

// UnknownDeviceError is returned when a device ID is absent from every
// driver series in the catalog. There is no fallback series.
type UnknownDeviceError struct {
	DeviceID string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("no known driver series for device %s", e.DeviceID)
}

// NetworkError is returned when an NVIDIA page cannot be fetched. No
// retries are attempted; the error propagates to the caller as-is.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError is returned when a fetched page no longer matches the
// expected structure. Failing fast here beats returning a catalog built
// from misread markup.
type ParseError struct {
	Page   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %s", e.Page, e.Reason)
}
