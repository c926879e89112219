// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package money provides an exact integer representation of currency amounts.
//
// Every amount in the tax engine is an Amount: a count of minor currency
// units (cents). Floating point is never used for money anywhere in the
// engine, so derived sums are exact and computation is bit-for-bit
// deterministic across runs and platforms.
//
// # Usage
//
//	wages := money.FromDollars(60_000)      // 6,000,000 cents
//	total := wages + money.Amount(123_45)   // plain integer arithmetic
//	fmt.Println(total.String())             // "$60,123.45"
package money

import (
	"fmt"
	"strings"
)

// Amount is a currency amount in integer cents.
//
// Amount is a defined type over int64 rather than a struct so that ordinary
// arithmetic operators work directly on it. Negative amounts are valid and
// represent losses or overpayments depending on context.
type Amount int64

// Zero is the zero amount, exported for readability at call sites.
const Zero Amount = 0

// FromDollars converts a whole-dollar figure to an Amount.
func FromDollars(dollars int64) Amount {
	return Amount(dollars * 100)
}

// Cents returns the raw cent count.
func (a Amount) Cents() int64 {
	return int64(a)
}

// Dollars returns the whole-dollar part, truncated toward zero.
func (a Amount) Dollars() int64 {
	return int64(a) / 100
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool {
	return a < 0
}

// FloorZero returns the amount, or zero if the amount is negative.
//
// Many tax lines are defined as "but not less than zero"; this is that
// operation.
func (a Amount) FloorZero() Amount {
	if a < 0 {
		return 0
	}
	return a
}

// Min returns the smaller of two amounts.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two amounts.
func Max(a, b Amount) Amount {
	if a > b {
		return a
	}
	return b
}

// Sum adds a sequence of amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}

// MulRatio multiplies an amount by num/den using integer arithmetic,
// truncating toward zero. den must be non-zero; a zero den returns 0
// rather than panicking because this sits on display and apportionment
// paths that must degrade gracefully.
func (a Amount) MulRatio(num, den int64) Amount {
	if den == 0 {
		return 0
	}
	return Amount(int64(a) * num / den)
}

// String formats the amount as a dollar string with thousands separators,
// e.g. "$1,234.56" or "-$0.07".
func (a Amount) String() string {
	cents := int64(a)
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	dollars := cents / 100
	frac := cents % 100
	return fmt.Sprintf("%s$%s.%02d", sign, groupThousands(dollars), frac)
}

// groupThousands renders n with comma separators every three digits.
func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
