// Copyright (c) 2024-2025 Andrew Chu
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream implements the server-to-client event stream carrying
// incremental AI output.
//
// The wire format is Server-Sent-Events framing: one JSON object per
// "data: " line, blank-line separated. Each frame is either an incremental
// content fragment, the terminal completion carrying the server-assigned
// message ID, or a terminal error. Exactly one terminal event concludes
// every well-formed stream; a connection that closes without one is treated
// as a failure, never as implicit completion.
//
// # Key Types
//
//   - Event: tagged variant (Fragment, Complete, Failure)
//   - Writer: server side, frames events onto an http.ResponseWriter
//   - Reader: client side, decodes frames from an io.Reader
//
// # Usage
//
//	reader := stream.NewReader(resp.Body)
//	err := reader.Process(ctx, func(ev stream.Event) {
//	    switch ev := ev.(type) {
//	    case stream.Fragment:
//	        // append ev.Content
//	    case stream.Complete:
//	        // finalize with ev.MessageID
//	    case stream.Failure:
//	        // discard with ev.Reason
//	    }
//	})
//
// Fragments are delivered strictly in wire order.
package stream
