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
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"
)

func TestVerifyErrors(t *testing.T) {
	var merr *multierror.Error
	merr = multierror.Append(merr, fmt.Errorf("first"), fmt.Errorf("second"))

	if !VerifyErrors(t, nil, 0) {
		t.Errorf("nil error not accepted")
	}
	if !VerifyErrors(t, fmt.Errorf("single"), 1, "sing") {
		t.Errorf("single error not accepted")
	}
	if !VerifyErrors(t, merr.ErrorOrNil(), 2, "first", "second") {
		t.Errorf("aggregated errors not accepted")
	}
}
