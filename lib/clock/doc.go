// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Storage backends stamp every row they write with the time of the
// write. They read that time from a Clock instead of calling time.Now
// so tests can assert exact timestamps: production passes Real(),
// tests pass Fake() and move it with Set or Advance.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	backend := storage.NewDatabase(pool, c, logger)
//	// ... Put ...
//	c.Advance(time.Hour)
package clock
