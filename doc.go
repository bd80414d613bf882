/*
Package jsonrpc provides a transport-agnostic JSON-RPC 2.0 engine for Go.

The engine covers the full protocol surface: single and batch requests,
notifications, id correlation, typed application errors, pluggable parameter
validation, a middleware/error-handler pipeline on the server side and a
middleware chain with retry and tracing support on the client side. It does
not ship any concrete transport: servers plug in by feeding request bytes to
a Dispatcher, clients plug in by implementing a single-method Transport.

Quick Start

Server side, register methods and dispatch raw request payloads:

	type SumParams struct {
	    A float64 `json:"a"`
	    B float64 `json:"b"`
	}

	reg := registry.New()
	reg.MustAdd("sum", func(ctx context.Context, p *SumParams) (float64, error) {
	    return p.A + p.B, nil
	})

	d := server.NewDispatcher(reg)
	out, _ := d.Dispatch(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"sum","params":[1,2]}`))
	// out == {"jsonrpc":"2.0","id":1,"result":3}

Client side, implement Transport and call:

	c := client.New(transport)
	result, err := c.Call(ctx, "sum", 1, 2)

Modules

The engine is organized into several packages:

  - protocol: JSON-RPC 2.0 message model (Request, Response, batches, errors)
  - codec: wire encoding (JSON, CBOR, Protobuf)
  - registry: method registry and parameter binding/validation
  - server: request dispatcher with middleware and error-handler chains
  - client: request builder, id correlation, batch calls, tracing
  - retry: backoff generators and a retrying client middleware

Application code should depend on the protocol types and the package
boundaries above; transport selection stays a deployment decision.
*/
package jsonrpc
