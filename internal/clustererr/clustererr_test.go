// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package clustererr

import (
	"errors"
	"testing"
)

func TestErrorMessageWithAndWithoutCause(t *testing.T) {
	plain := New(KindInsufficientVoters, "only 12 voters")
	if got, want := plain.Error(), "InsufficientVoters: only 12 voters"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}

	cause := errors.New("dial tcp: connection refused")
	wrapped := Wrap(KindStoreUnavailable, "reading votes", cause)
	if got, want := wrapped.Error(), "StoreUnavailable: reading votes: dial tcp: connection refused"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestUnwrapRecoversCause(t *testing.T) {
	cause := errors.New("svd did not converge")
	wrapped := Wrap(KindNumerical, "computing projection", cause)

	if !errors.Is(wrapped, cause) {
		t.Fatal("errors.Is must see through Unwrap to the cause")
	}

	var target *Error
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As must recover the *Error")
	}
	if target.Kind != KindNumerical {
		t.Fatalf("recovered Kind = %v, want Numerical", target.Kind)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindInsufficientVoters, 2},
		{KindAlreadyRunning, 3},
		{KindNumerical, 1},
		{KindStoreUnavailable, 1},
		{KindWriteConflict, 1},
	}
	for _, c := range cases {
		if got := ExitCode(c.kind); got != c.want {
			t.Errorf("ExitCode(%v) = %d, want %d", c.kind, got, c.want)
		}
	}
}
