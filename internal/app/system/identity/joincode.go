package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
)

// JoinCodeAlphabet has 32 symbols; 0/O and 1/I are left out so codes survive
// being read aloud or copied by hand.
const JoinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Join code lengths used by the bounded creation schedule.
const (
	JoinCodeLength         = 6
	JoinCodeEscalateLength = 8
	JoinCodeDraws          = 3
)

// GenerateJoinCode draws length random symbols from JoinCodeAlphabet.
// 256 is a multiple of 32, so byte%32 is unbiased.
func GenerateJoinCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("join code length must be positive, got %d", length)
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = JoinCodeAlphabet[int(b)%len(JoinCodeAlphabet)]
	}
	return string(out), nil
}

// JoinCodeSchedule returns the lengths to try, in order: JoinCodeDraws draws
// at base length, then one final draw at the escalated length.
func JoinCodeSchedule(base int) []int {
	if base <= 0 {
		base = JoinCodeLength
	}
	escalated := JoinCodeEscalateLength
	if escalated <= base {
		escalated = base + 2
	}
	sched := make([]int, 0, JoinCodeDraws+1)
	for i := 0; i < JoinCodeDraws; i++ {
		sched = append(sched, base)
	}
	return append(sched, escalated)
}

// PickJoinCode walks the schedule and returns the first code exists reports as
// free. If every draw collides it returns the last (escalated) draw anyway and
// leaves the decision to the unique index.
func PickJoinCode(ctx context.Context, base int, exists ExistsFunc) (string, error) {
	var code string
	for _, n := range JoinCodeSchedule(base) {
		c, err := GenerateJoinCode(n)
		if err != nil {
			return "", err
		}
		code = c
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return code, nil
}

// NormalizeJoinCode trims and uppercases user input.
func NormalizeJoinCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
