// Package rid generates the short identifiers used as member ids and
// map-context ids.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package rid

import (
	"strconv"
	"sync"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"
)

// alphabet mirrors shortid.DefaultABC in length and composition so that
// generated ids stay URL- and log-safe.
const abc = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

const mlcg32 = uint64(2147483647)

var (
	once sync.Once
	gen  *shortid.Shortid
)

func generator() *shortid.Shortid {
	once.Do(func() {
		gen = shortid.MustNew(4 /*worker*/, abc, 0)
	})
	return gen
}

// New returns a fresh, random member id (or map-context id).
func New() string {
	return generator().MustGenerate()
}

// FromSeed deterministically derives a short id from seed, so that
// tests can stand up several nodes with reproducible ids.
func FromSeed(seed uint64) string {
	digest := xxhash.Checksum64S([]byte(strconv.FormatUint(seed, 10)), mlcg32)
	s := strconv.FormatUint(digest, 36)
	if len(s) > 12 {
		s = s[:12]
	}
	return s
}
