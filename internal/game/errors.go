package game

import (
	"errors"
	"fmt"
)

func errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// Error codes sent to clients alongside the message.
const (
	CodeNotFound           = "not_found"
	CodeInsufficientFunds  = "insufficient_funds"
	CodeTankFull           = "tank_full"
	CodeAlreadyOwned       = "already_owned"
	CodeCatchOnly          = "catch_only"
	CodeCategoryMismatch   = "category_mismatch"
	CodeInvalidSlot        = "invalid_slot"
	CodeNotOwned           = "not_owned"
	CodeDuplicateFish      = "duplicate_fish"
	CodeInvalidFish        = "invalid_fish"
	CodeInvalidAmount      = "invalid_amount"
	CodeUnauthorized       = "unauthorized"
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidUsername    = "invalid_username"
	CodeInvalidPassword    = "invalid_password"
	CodeAccountExists      = "account_exists"
	CodeInvalidTicket      = "invalid_ticket"
	CodeCatchSettled       = "catch_settled"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotFound, CodeNotFound},
	{ErrInsufficientFunds, CodeInsufficientFunds},
	{ErrTankFull, CodeTankFull},
	{ErrAlreadyOwned, CodeAlreadyOwned},
	{ErrCatchOnlyItem, CodeCatchOnly},
	{ErrCategoryMismatch, CodeCategoryMismatch},
	{ErrInvalidSlot, CodeInvalidSlot},
	{ErrNotOwned, CodeNotOwned},
	{ErrDuplicateFish, CodeDuplicateFish},
	{ErrInvalidFish, CodeInvalidFish},
	{ErrInvalidAmount, CodeInvalidAmount},
	{ErrUnauthorized, CodeUnauthorized},
	{ErrInvalidCredentials, CodeInvalidCredentials},
	{ErrInvalidUsername, CodeInvalidUsername},
	{ErrInvalidPassword, CodeInvalidPassword},
	{ErrAccountExists, CodeAccountExists},
	{ErrInvalidTicket, CodeInvalidTicket},
	{ErrCatchSettled, CodeCatchSettled},
}

// ErrorCode returns the client-facing code for a domain error, or "" when err
// is not one.
func ErrorCode(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ""
}
