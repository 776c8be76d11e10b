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

package log

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	goxrate "golang.org/x/time/rate"
)

func TestRateLimitWindow(t *testing.T) {
	rl := RateLimit(Default(), Rate{Window: MinimumWindow, Limit: Every(time.Second)}).(*ratelimited)
	limiters := make(map[string]*goxrate.Limiter)

	messages := make([]string, 0, MinimumWindow)
	for idx := 0; idx < cap(messages); idx++ {
		msg := fmt.Sprintf("message #%d", idx)
		messages = append(messages, msg)
		limiters[msg] = rl.getMessageLimit(msg)
	}
	for msg, limiter := range limiters {
		require.Same(t, limiter, rl.getMessageLimit(msg), msg)
	}

	recent := make([]string, 0, MinimumWindow/4)
	for idx := 0; idx < cap(recent); idx++ {
		msg := fmt.Sprintf("message #%d", len(messages)+idx)
		recent = append(recent, msg)
		limiters[msg] = rl.getMessageLimit(msg)
	}

	// still in the window
	for _, msg := range append(recent, messages[len(recent):]...) {
		require.Same(t, limiters[msg], rl.getMessageLimit(msg), msg)
	}
	require.Len(t, rl.window, MinimumWindow)

	// shifted out of the window
	for _, msg := range messages[:len(recent)] {
		require.NotSame(t, limiters[msg], rl.getMessageLimit(msg), msg)
	}
}

func TestRateLimitDefaults(t *testing.T) {
	rl := RateLimit(Default(), Rate{Limit: Every(time.Second)}).(*ratelimited)
	require.Equal(t, DefaultWindow, rl.rate.Window)
	require.Equal(t, 1, rl.rate.Burst)

	rl = RateLimit(Default(), Rate{Window: 2}).(*ratelimited)
	require.Equal(t, MinimumWindow, rl.rate.Window)
}

func TestRateLimitSuppresses(t *testing.T) {
	useRecorder(t)
	rl := RateLimit(Get("test-ratelimit"), Interval(time.Hour))

	for i := 0; i < 5; i++ {
		rl.Warn("repeating")
	}
	rl.Warn("different")

	require.Equal(t, []record{
		{LevelWarn, "test-ratelimit", "<rate-limited> repeating"},
		{LevelWarn, "test-ratelimit", "<rate-limited> different"},
	}, recorder.take())
}
