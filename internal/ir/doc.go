// Package ir provides the typed value layer shared by every other package.
//
// This package contains values, static types and error kinds only. All other
// internal packages import ir; ir imports nothing internal. This keeps ir the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Values are a sealed set: IRNull, IRString, IRInt, IRBool, IRDecimal
//   - Integers are always int64; fractional numbers are exact decimals, never floats
//   - Strings are NFC normalized at serialization boundaries
//   - Every error surfaced to callers carries an ErrorCode (see errors.go)
package ir
