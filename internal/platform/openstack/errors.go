package openstack

import (
	"errors"
	"net/http"

	"github.com/gophercloud/gophercloud"
)

var (
	// ErrDependencyNotFound is returned when a resource the run relies on but never
	// creates (external network, image, flavor, target network) does not exist.
	ErrDependencyNotFound = errors.New("required resource not found")

	// ErrNoPort is returned when a server has no network port to bind a floating IP to.
	ErrNoPort = errors.New("server has no network port")

	// ErrServerError is returned when a server enters the ERROR state.
	ErrServerError = errors.New("server entered ERROR state")
)

// statusCode extracts the HTTP status code from a gophercloud error, or 0.
func statusCode(err error) int {
	if err == nil {
		return 0
	}

	var codeErr gophercloud.StatusCodeError
	if errors.As(err, &codeErr) {
		return codeErr.GetStatusCode()
	}

	var respErr gophercloud.ErrUnexpectedResponseCode
	if errors.As(err, &respErr) {
		return respErr.Actual
	}
	return 0
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}

// IsConflict checks if an error indicates a conflict, such as a duplicate
// security group rule or a subnet that is already attached to a router.
func IsConflict(err error) bool {
	return statusCode(err) == http.StatusConflict
}

// IsBadRequest checks if an error indicates the request was rejected as invalid.
func IsBadRequest(err error) bool {
	return statusCode(err) == http.StatusBadRequest
}
