package sourceclient

import (
	"errors"
	"fmt"
)

var errExhausted = errors.New("retry attempts exhausted")

func errStatus(status int) error {
	return fmt.Errorf("unexpected status %d", status)
}
