package cli

import (
	"errors"
	"fmt"

	"cloudconsole/internal/client"
)

type kindMismatchError struct {
	want string
	id   string
}

func (e kindMismatchError) Error() string {
	return fmt.Sprintf("%s is not a %s id", e.id, e.want)
}

type busyError struct{ id string }

func (e busyError) Error() string {
	return fmt.Sprintf("%s: another request is in flight", e.id)
}

// errorText prefers the control plane's own message.
func errorText(err error) string {
	var ae *client.APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return "error: " + ae.Message
	}
	return "error: " + err.Error()
}
