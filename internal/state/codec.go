package state

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Typed accessors over raw values. Missing keys read as the zero value.

func GetBool(ctx context.Context, r Reader, key string) (bool, error) {
	v, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return len(v) == 1 && v[0] == 1, nil
}

func PutBool(t *Txn, key string, b bool) {
	if b {
		t.Put(key, []byte{1})
		return
	}
	t.Put(key, []byte{0})
}

// GetUint256 reads a 32-byte big-endian quantity.
func GetUint256(ctx context.Context, r Reader, key string) (*uint256.Int, error) {
	v, ok, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	if len(v) != 32 {
		return nil, fmt.Errorf("key %s: malformed uint256 of %d bytes", key, len(v))
	}
	return new(uint256.Int).SetBytes(v), nil
}

func PutUint256(t *Txn, key string, x *uint256.Int) {
	b := x.Bytes32()
	t.Put(key, b[:])
}

// GetBigInt reads a signed decimal integer.
func GetBigInt(ctx context.Context, r Reader, key string) (*big.Int, error) {
	v, ok, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	out := new(big.Int)
	if !ok {
		return out, nil
	}
	if err := out.UnmarshalText(v); err != nil {
		return nil, fmt.Errorf("key %s: %w", key, err)
	}
	return out, nil
}

func PutBigInt(t *Txn, key string, x *big.Int) {
	v, _ := x.MarshalText()
	t.Put(key, v)
}

// GetByte reads a single-byte enum value.
func GetByte(ctx context.Context, r Reader, key string) (byte, error) {
	v, ok, err := r.Get(ctx, key)
	if err != nil || !ok || len(v) == 0 {
		return 0, err
	}
	return v[0], nil
}

func PutByte(t *Txn, key string, b byte) {
	t.Put(key, []byte{b})
}

// GetJSON decodes a record into dst and reports whether it existed.
func GetJSON(ctx context.Context, r Reader, key string, dst any) (bool, error) {
	v, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return false, fmt.Errorf("key %s: %w", key, err)
	}
	return true, nil
}

func PutJSON(t *Txn, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("key %s: %w", key, err)
	}
	t.Put(key, raw)
	return nil
}
