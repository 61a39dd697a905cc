package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCode   = errors.New("invalid classification code")
	ErrNoTariffFound = errors.New("no tariff found for this code")
	ErrDataStore     = errors.New("calculation failed")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTemporary     = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindOf returns the narrowest known kind carried by err, or ErrDataStore.
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidCode, ErrInvalidInput, ErrNoTariffFound, ErrTemporary, ErrDataStore} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrDataStore
}

// KindName is the stable wire name of an error kind.
func KindName(kind error) string {
	switch kind {
	case ErrInvalidCode:
		return "invalid_code"
	case ErrInvalidInput:
		return "invalid_input"
	case ErrNoTariffFound:
		return "no_tariff"
	case ErrTemporary:
		return "temporary"
	default:
		return "data_store"
	}
}

// KindByName is the inverse of KindName; unknown names map to ErrDataStore.
func KindByName(name string) error {
	switch name {
	case "invalid_code":
		return ErrInvalidCode
	case "invalid_input":
		return ErrInvalidInput
	case "no_tariff":
		return ErrNoTariffFound
	case "temporary":
		return ErrTemporary
	default:
		return ErrDataStore
	}
}

// PublicMessage is the caller-facing text for err. Storage details never leak.
func PublicMessage(err error) string {
	switch KindOf(err) {
	case ErrInvalidCode, ErrInvalidInput:
		return err.Error()
	case ErrNoTariffFound:
		return ErrNoTariffFound.Error()
	case ErrTemporary:
		return "tariff catalog temporarily unavailable"
	default:
		return ErrDataStore.Error()
	}
}
