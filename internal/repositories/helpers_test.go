package repositories

import "errors"

func isUnexpectedStatus(err error) bool {
	return errors.Is(err, ErrUnexpectedStatus)
}
