// Package codec provides the default, jsoniter-backed xport.Codec.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package codec

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/NVIDIA/repmap/xport"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON is the default xport.Codec: jsoniter with the standard
// library's encoding/json semantics, for control-plane messages.
type JSON struct{}

var _ xport.Codec = JSON{}

func (JSON) Serialize(v any) ([]byte, error) {
	return jsonAPI.Marshal(v)
}

func (JSON) Deserialize(data []byte, _ []string, out any) error {
	return jsonAPI.Unmarshal(data, out)
}
