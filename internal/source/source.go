// Package source fetches secret bytes from the environment, the OS keyring
// or an inline literal and loads them into byte cells.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	scerrors "github.com/systmms/securecell/internal/errors"
	"github.com/systmms/securecell/internal/secure"
	"github.com/systmms/securecell/pkg/cell"
)

var (
	// ErrNotFound means the source exists but holds no secret.
	ErrNotFound = errors.New("secret not found")
	// ErrUnknownScheme is returned by Parse for unsupported URI schemes.
	ErrUnknownScheme = errors.New("unknown scheme")
	// ErrMalformed is returned by Parse for URIs missing required parts.
	ErrMalformed = errors.New("malformed source uri")
)

// Source yields the raw bytes of one secret. Callers own the returned
// slice and are expected to wipe it.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

// Parse builds a Source from env:NAME, keyring:service/account or
// literal:value.
func Parse(uri string) (Source, error) {
	scheme, rest, ok := strings.Cut(uri, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q has no scheme", ErrMalformed, uri)
	}

	switch strings.ToLower(scheme) {
	case "env":
		if rest == "" {
			return nil, fmt.Errorf("%w: env source needs a variable name", ErrMalformed)
		}
		return Env{Var: rest}, nil
	case "keyring":
		service, account, ok := strings.Cut(rest, "/")
		if !ok || service == "" || account == "" {
			return nil, fmt.Errorf("%w: keyring source needs service/account", ErrMalformed)
		}
		return Keyring{Service: service, Account: account}, nil
	case "literal":
		return Literal{Value: rest}, nil
	default:
		return nil, fmt.Errorf("%w %q (want env, keyring or literal)", ErrUnknownScheme, scheme)
	}
}

// Env reads an environment variable. An unset variable is ErrNotFound; a
// set but empty one yields an empty secret.
type Env struct {
	Var string
}

func (e Env) Name() string { return "env:" + e.Var }

func (e Env) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := os.LookupEnv(e.Var)
	if !ok {
		return nil, fmt.Errorf("%w: variable %s not set", ErrNotFound, e.Var)
	}
	return []byte(v), nil
}

// Keyring reads a generic password from the OS keyring (Keychain, Secret
// Service or Credential Manager).
type Keyring struct {
	Service string
	Account string
}

func (k Keyring) Name() string { return "keyring:" + k.Service + "/" + k.Account }

// Fetch queries the keyring on its own goroutine so a stuck Secret Service
// call cannot outlive ctx. The keyring API returns a string, which cannot
// be wiped; only the returned copy can.
func (k Keyring) Fetch(ctx context.Context) ([]byte, error) {
	type result struct {
		secret string
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		secret, err := keyring.Get(k.Service, k.Account)
		ch <- result{secret, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("%w in keyring: %s", ErrNotFound, k.Name())
			}
			return nil, r.err
		}
		return []byte(r.secret), nil
	}
}

// Literal returns a fixed value. Meant for tests and demos.
type Literal struct {
	Value string
}

// Name never includes the value.
func (l Literal) Name() string { return "literal:[REDACTED]" }

func (l Literal) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(l.Value), nil
}

// Load fetches src into a new byte cell and wipes the fetched buffer. The
// cell is created with cell.NewBytes, so opts may pick any lock policy.
func Load(ctx context.Context, src Source, opts ...cell.Option) (*cell.Cell[[]byte], error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		scheme, _, _ := strings.Cut(src.Name(), ":")
		return nil, scerrors.SourceError(scheme, src.Name(), err)
	}
	defer secure.WipeBytes(data)

	return cell.NewBytes(data, opts...), nil
}

// LoadURI is Parse followed by Load.
func LoadURI(ctx context.Context, uri string, opts ...cell.Option) (*cell.Cell[[]byte], error) {
	src, err := Parse(uri)
	if err != nil {
		// the uri may carry a literal value, so only the scheme is reported
		scheme, _, ok := strings.Cut(uri, ":")
		if !ok {
			scheme = "unknown"
		}
		return nil, scerrors.SourceError(scheme, scheme+":", err)
	}
	return Load(ctx, src, opts...)
}
