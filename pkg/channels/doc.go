// Copyright (c) 2026 the cocol authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package channels provides CSP style communication channels : typed, rendezvous or
// bounded-buffered message-passing primitives with per-operation timeouts, cancellation,
// and graceful retirement.
//
// Every channel operation runs a two-phase commit (offer / commit / withdraw) against the
// participants' TwoPhaseOffer handles. The two-phase protocol is what makes it possible to
// compose a single atomic choice across many channels - see ReadFromAny and WriteToAny.
//
// Channels are created via New / MustNew. Operations are asynchronous : ReadAsync and
// WriteAsync return a Promise that is resolved when the operation completes, times out,
// is cancelled, or the channel retires. Read and Write are blocking conveniences on top
// of the asynchronous API.
//
// Deadlines are tracked by a process-wide expiration manager backed by a single worker.
// Tests that need a clean process state should call ShutdownExpirations during teardown.
package channels
