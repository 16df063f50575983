// Package idhash derives deterministic identifiers from run inputs.
package idhash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(series_id|first_ts|last_ts|points|params|data_version)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(
	seriesID string,
	firstTs int64,
	lastTs int64,
	points int,
	params string,
	dataVersion string,
) string {
	data := fmt.Sprintf("%s|%d|%d|%d|%s|%s",
		seriesID,
		firstTs,
		lastTs,
		points,
		params,
		dataVersion,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeDataVersion hashes the exact bit patterns of values in order.
// Any change to a single value yields a different version.
func ComputeDataVersion(values []float64) string {
	h := sha256.New()
	var buf [8]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
