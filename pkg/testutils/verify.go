// Copyright 2019-2020 Intel Corporation. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package testutils

import (
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
)

// VerifyErrors checks that err aggregates count errors and that its message
// contains every given substring. A zero count expects no error.
func VerifyErrors(t *testing.T, err error, count int, substrings ...string) bool {
	t.Helper()

	if count == 0 {
		if err != nil {
			t.Errorf("expected no errors, got %v", err)
			return false
		}
		return true
	}
	if err == nil {
		t.Errorf("expected %d errors, got nil", count)
		return false
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		if count != 1 {
			t.Errorf("expected %d errors, got a single one: %v", count, err)
			return false
		}
	} else if len(merr.Errors) != count {
		t.Errorf("expected %d errors, got %d: %v", count, len(merr.Errors), merr)
		return false
	}

	ok := true
	for _, s := range substrings {
		if !strings.Contains(err.Error(), s) {
			t.Errorf("expected error with substring %q, got %q", s, err.Error())
			ok = false
		}
	}
	return ok
}
