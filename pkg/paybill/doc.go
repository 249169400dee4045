// Package paybill provides types, interfaces, and helpers for working with
// subscription billing plans and catalog products over the PayPal REST API.
//
// # Overview
//
// The paybill package defines the domain types (Plan, Product, BillingCycle,
// PricingScheme), the validating templates used to create them, the patch
// builders used to update them, and the resource client interfaces
// (PlansClient, ProductsClient). A concrete implementation is provided by the
// ppclient package, which wires configuration, transport, credential exchange,
// and caching.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/paybill/pkg/paybill"
//	  "github.com/fivetwenty-io/paybill/pkg/ppclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := ppclient.New(ctx, &paybill.Config{
//	    ClientID:    "AX...",
//	    Secret:      "EL...",
//	    Environment: "sandbox",
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  if err := cli.Identify(ctx); err != nil { log.Fatal(err) }
//
//	  plans, err := cli.Plans().List(ctx, &paybill.PlanListOptions{All: true})
//	  if err != nil { log.Fatal(err) }
//	  _ = plans
//	}
//
// # Identification
//
// Every platform call requires a bearer token. Identify exchanges the client
// credentials for one and keeps it renewed. Calls made before the session is
// ready fail with *NotReadyError; use Ready or OnReady to wait for it.
//
// # Templates
//
// PlanTemplate and ProductTemplate validate every field as it is set. A setter
// that returns an error leaves the template unchanged:
//
//	tmpl := paybill.NewPlanTemplate()
//	if err := tmpl.SetName("Gold"); err != nil { /* *ValidationError */ }
//	_ = tmpl.AddBillingCycle(&paybill.PricingScheme{
//	  FixedPrice: &paybill.Money{CurrencyCode: "USD", Value: "10.00"},
//	}, paybill.Frequency{IntervalUnit: "MONTH", IntervalCount: 1}, "REGULAR", 1, 0)
//
// # Errors
//
// Typed errors match sentinel values through errors.Is: ValidationError
// (ErrValidation), NotReadyError (ErrNotReady), NotFoundError (ErrNotFound),
// IncompleteTemplateError (ErrIncompleteTemplate), AuthenticationError
// (ErrAuthentication), InvalidStateError (ErrInvalidState), and ResponseError
// (ErrSoftFailure) for requests the platform rejected.
//
// # Interceptors and caching
//
// InterceptorChain lets callers add request and response hooks such as
// logging or metrics. ResourceCache keeps one live instance per id and writes
// through to a Cache backend: MemoryCache, a NATS JetStream bucket, or
// NoOpCache.
package paybill
