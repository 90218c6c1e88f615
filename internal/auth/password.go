// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth provides argon2id password hashing and the token
// machinery behind email verification and password resets.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. The 19 MiB / t=2 / p=1 profile is the OWASP
// low-memory recommendation, chosen so password checks stay cheap on small
// deployments.
const (
	argonTime    = 2
	argonMemory  = 19 * 1024
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16
)

var errMalformedHash = errors.New("malformed password hash")

// HashPassword derives an argon2id hash of password in the standard
// "$argon2id$v=19$m=...,t=...,p=...$salt$hash" encoding.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// CheckPassword reports whether password matches the encoded argon2id
// hash. The comparison is constant time.
func CheckPassword(password, encoded string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	derived := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

// NeedsRehash reports whether encoded was produced with cost parameters
// different from the current defaults. Callers upgrade the stored hash on
// the next successful login.
func NeedsRehash(encoded string) bool {
	params, _, _, err := decodeHash(encoded)
	if err != nil {
		return true
	}
	return params.memory != argonMemory || params.time != argonTime || params.threads != argonThreads
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func decodeHash(encoded string) (argonParams, []byte, []byte, error) {
	var (
		params  argonParams
		version int
		b64Salt string
		b64Key  string
	)

	n, err := fmt.Sscanf(encoded, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		&version, &params.memory, &params.time, &params.threads, &b64Salt)
	if err != nil || n != 5 {
		return argonParams{}, nil, nil, errMalformedHash
	}

	// Sscanf's %s is greedy; split the trailing "salt$hash" pair by hand.
	b64Salt, b64Key, ok := strings.Cut(b64Salt, "$")
	if !ok {
		return argonParams{}, nil, nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(b64Salt)
	if err != nil {
		return argonParams{}, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(b64Key)
	if err != nil {
		return argonParams{}, nil, nil, errMalformedHash
	}
	return params, salt, key, nil
}
