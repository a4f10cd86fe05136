//go:build !darwin

package native

import "context"

func ReadDomain(ctx context.Context, domain string) (string, error) {
	return "", ErrUnsupported
}

func ReadKey(ctx context.Context, domain, key string) (string, bool, error) {
	return "", false, ErrUnsupported
}

func DeleteDomain(ctx context.Context, domain string) error {
	return ErrUnsupported
}
