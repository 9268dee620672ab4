/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package ingest

import (
	"context"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fastRetry = RetryOptions{
	MaxAttempts:       3,
	InitialBackoff:    time.Millisecond,
	MaxBackoff:        5 * time.Millisecond,
	BackoffMultiplier: 2,
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   bool
	}{
		{"succeeds first time", nil, 1, false},
		{"retries connection errors", []error{&ErrDatabaseConnection{Msg: "dial", Err: errors.New("refused")}}, 2, false},
		{"retries timeouts", []error{&ErrTimeout{Msg: "slow", Err: context.DeadlineExceeded}, &ErrTimeout{Msg: "slow", Err: context.DeadlineExceeded}}, 3, false},
		{"gives up after max attempts", []error{
			&ErrDatabaseConnection{Msg: "dial", Err: errors.New("refused")},
			&ErrDatabaseConnection{Msg: "dial", Err: errors.New("refused")},
			&ErrDatabaseConnection{Msg: "dial", Err: errors.New("refused")},
		}, 3, true},
		{"does not retry query errors", []error{&ErrQueryExecution{Msg: "insert", Err: errors.New("constraint")}}, 1, true},
		{"does not retry invalid input", []error{&ErrInvalidInput{Msg: "header", Err: errors.New("empty")}}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := withRetry(context.Background(), zap.NewNop(), fastRetry, func(context.Context) (int, error) {
				calls++
				if calls <= len(tt.failures) {
					return 0, tt.failures[calls-1]
				}
				return 42, nil
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 42, got)
		})
	}
}

func TestWithRetryCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := RetryOptions{MaxAttempts: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour, BackoffMultiplier: 1}

	_, err := withRetry(ctx, zap.NewNop(), opts, func(context.Context) (struct{}, error) {
		cancel()
		return struct{}{}, &ErrDatabaseConnection{Msg: "dial", Err: errors.New("refused")}
	})
	var cancelled *ErrCancelled
	require.ErrorAs(t, err, &cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyStoreError(t *testing.T) {
	assert.NoError(t, classifyStoreError("op", nil))

	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"cancelled", context.Canceled, func(err error) bool { var e *ErrCancelled; return errors.As(err, &e) }},
		{"deadline", context.DeadlineExceeded, func(err error) bool { var e *ErrTimeout; return errors.As(err, &e) }},
		{"bad conn", driver.ErrBadConn, func(err error) bool { var e *ErrDatabaseConnection; return errors.As(err, &e) }},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, func(err error) bool { var e *ErrDatabaseConnection; return errors.As(err, &e) }},
		{"other", errors.New("syntax error"), func(err error) bool { var e *ErrQueryExecution; return errors.As(err, &e) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStoreError("op", tt.err)
			assert.True(t, tt.check(err), "unexpected classification %T", err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := &ErrInvalidInput{Msg: "headers of a.csv", Err: errors.New("column 2 has an empty name")}
	assert.Equal(t, "invalid input error: headers of a.csv: column 2 has an empty name", err.Error())
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	var mu sync.Mutex
	active, maxActive := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("orders")
			defer unlock()
			mu.Lock()
			active++
			maxActive = max(maxActive, active)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
	assert.Zero(t, k.size())

	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())
	unlockA()
	unlockB()
}
