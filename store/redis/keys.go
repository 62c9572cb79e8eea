package redis

// Redis key naming conventions for syncengine data.
// All keys are prefixed with "sync:" to avoid collisions.

const keyPrefix = "sync:"

// ── Job keys ──

// jobKey returns the key for a job entity: sync:job:{id}
func jobKey(id string) string { return keyPrefix + "job:" + id }

// jobIDsKey is the Set tracking all job IDs for enumeration.
const jobIDsKey = keyPrefix + "job_ids"

// ── Drop-log keys ──

// dropKey returns the key for a drop-log entry entity: sync:drop:{id}
func dropKey(id string) string { return keyPrefix + "drop:" + id }

// dropIDsKey is the Set tracking all drop-log entry IDs for enumeration.
const dropIDsKey = keyPrefix + "drop_ids"
